package blocks

func builtinDefinitions() []Definition {
	return []Definition{
		{
			Type:        TypeHeading,
			Label:       "Heading",
			Description: "Section title",
			Icon:        "heading",
			Category:    "content",
			Schema: object(props{
				"text":  str(),
				"level": integer(1, 6),
			}),
			New: func() Data { return &HeadingData{Level: 2} },
		},
		{
			Type:        TypeText,
			Label:       "Text",
			Description: "Rich text paragraph",
			Icon:        "text",
			Category:    "content",
			Schema:      object(props{"content": str()}),
			New:         func() Data { return &TextData{} },
		},
		{
			Type:        TypeImage,
			Label:       "Image",
			Description: "Single image",
			Icon:        "image",
			Category:    "media",
			Schema: object(props{
				"url":     str(),
				"alt":     str(),
				"caption": str(),
				"name":    str(),
				"size":    integer(0, -1),
			}, optional{
				"previewUrl":  str(),
				"uploadId":    str(),
				"isUploading": boolean(),
			}),
			New: func() Data { return &ImageData{} },
		},
		{
			Type:        TypeGallery,
			Label:       "Gallery",
			Description: "Image grid",
			Icon:        "gallery",
			Category:    "media",
			Schema: object(props{
				"title":   str(),
				"columns": integer(1, 6),
				"images": array(object(props{
					"id":      str(),
					"url":     str(),
					"alt":     str(),
					"caption": str(),
					"name":    str(),
					"size":    integer(0, -1),
				}, optional{
					"previewUrl":  str(),
					"isUploading": boolean(),
				})),
			}),
			New: func() Data { return &GalleryData{Columns: 3, Images: []GalleryImage{}} },
		},
		{
			Type:        TypeFile,
			Label:       "File",
			Description: "Downloadable document",
			Icon:        "file",
			Category:    "media",
			Schema: object(props{
				"url":         str(),
				"name":        str(),
				"size":        integer(0, -1),
				"description": str(),
			}, optional{
				"uploadId":    str(),
				"isUploading": boolean(),
			}),
			New: func() Data { return &FileData{} },
		},
		{
			Type:        TypeItinerary,
			Label:       "Itinerary",
			Description: "Day by day programme",
			Icon:        "calendar",
			Category:    "trip",
			Schema: object(props{
				"title": str(),
				"days": array(object(props{
					"id":          str(),
					"dayNumber":   integer(1, -1),
					"title":       str(),
					"description": str(),
					"meals": object(props{
						"breakfast": boolean(),
						"lunch":     boolean(),
						"dinner":    boolean(),
					}),
					"activities": array(str()),
				})),
			}),
			New: func() Data { return &ItineraryData{Days: []Day{{DayNumber: 1, Activities: []string{}}}} },
		},
		{
			Type:        TypeServices,
			Label:       "Services",
			Description: "Included and excluded services",
			Icon:        "check-list",
			Category:    "trip",
			Schema: object(props{
				"title":    str(),
				"includes": array(str()),
				"excludes": array(str()),
			}),
			New: func() Data { return &ServicesData{Includes: []string{}, Excludes: []string{}} },
		},
		{
			Type:        TypePrice,
			Label:       "Price",
			Description: "Base price and options",
			Icon:        "price",
			Category:    "trip",
			Schema: object(props{
				"basePrice": number(0),
				"currency":  str(),
				"priceType": enum(PriceTypePerPerson, PriceTypePerGroup, PriceTypeTotal),
				"options": array(object(props{
					"id":          str(),
					"name":        str(),
					"price":       number(-1),
					"description": str(),
				})),
				"notes": str(),
			}),
			New: func() Data {
				return &PriceData{Currency: "EUR", PriceType: PriceTypePerPerson, Options: []PriceOption{}}
			},
		},
		{
			Type:        TypeAccommodation,
			Label:       "Accommodation",
			Description: "Hotel or lodge stay",
			Icon:        "bed",
			Category:    "trip",
			Schema: object(props{
				"name":        str(),
				"location":    str(),
				"description": str(),
				"rating":      integer(0, 5),
				"nights":      integer(0, -1),
				"roomType":    str(),
				"mealPlan":    str(),
				"imageUrl":    str(),
			}),
			New: func() Data { return &AccommodationData{Nights: 1} },
		},
		{
			Type:        TypeActivity,
			Label:       "Activity",
			Description: "Excursion or experience",
			Icon:        "compass",
			Category:    "trip",
			Schema: object(props{
				"title":       str(),
				"description": str(),
				"location":    str(),
				"duration":    str(),
				"included":    boolean(),
				"price":       number(0),
				"imageUrl":    str(),
			}),
			New: func() Data { return &ActivityData{Included: true} },
		},
		{
			Type:        TypeTransport,
			Label:       "Transport",
			Description: "Ground or sea transfer",
			Icon:        "bus",
			Category:    "trip",
			Schema: object(props{
				"mode":          enum(TransportCar, TransportBus, TransportTrain, TransportBoat, TransportTransfer, TransportOther),
				"from":          str(),
				"to":            str(),
				"departureTime": str(),
				"duration":      str(),
				"description":   str(),
			}),
			New: func() Data { return &TransportData{Mode: TransportTransfer} },
		},
		{
			Type:        TypeFlight,
			Label:       "Flight",
			Description: "Flight segments",
			Icon:        "plane",
			Category:    "trip",
			Schema: object(props{
				"segments": array(object(props{
					"id":            str(),
					"airline":       str(),
					"flightNumber":  str(),
					"from":          str(),
					"to":            str(),
					"departureDate": str(),
					"departureTime": str(),
					"arrivalDate":   str(),
					"arrivalTime":   str(),
					"cabin":         str(),
				})),
				"baggage": str(),
				"notes":   str(),
			}),
			New: func() Data { return &FlightData{Segments: []Segment{{}}} },
		},
		{
			Type:        TypeFood,
			Label:       "Food",
			Description: "Meal or dining experience",
			Icon:        "utensils",
			Category:    "trip",
			Schema: object(props{
				"title":       str(),
				"description": str(),
				"mealType":    enum(MealBreakfast, MealLunch, MealDinner, MealSnack),
				"restaurant":  str(),
				"cuisine":     str(),
				"included":    boolean(),
			}),
			New: func() Data { return &FoodData{MealType: MealDinner, Included: true} },
		},
		{
			Type:        TypeCancellationPolicy,
			Label:       "Cancellation policy",
			Description: "Penalty tiers before departure",
			Icon:        "shield",
			Category:    "booking",
			Schema: object(props{
				"title": str(),
				"rules": array(object(props{
					"id":             str(),
					"daysBefore":     integer(0, -1),
					"penaltyPercent": numberRange(0, 100),
					"description":    str(),
				})),
				"notes": str(),
			}),
			New: func() Data { return &CancellationPolicyData{Rules: []CancellationRule{}} },
		},
	}
}

type (
	props    map[string]map[string]any
	optional map[string]map[string]any
)

// object builds a closed object schema; every key of required is mandatory.
func object(required props, extra ...optional) map[string]any {
	properties := make(map[string]any, len(required))
	names := make([]any, 0, len(required))
	for name, schema := range required {
		properties[name] = schema
		names = append(names, name)
	}
	for _, set := range extra {
		for name, schema := range set {
			properties[name] = schema
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             names,
		"additionalProperties": false,
	}
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func boolean() map[string]any { return map[string]any{"type": "boolean"} }

func enum(values ...string) map[string]any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return map[string]any{"type": "string", "enum": out}
}

// integer bounds the value; a negative max leaves it open.
func integer(min, max int) map[string]any {
	schema := map[string]any{"type": "integer", "minimum": min}
	if max >= 0 {
		schema["maximum"] = max
	}
	return schema
}

// number sets a lower bound unless min is negative.
func number(min float64) map[string]any {
	schema := map[string]any{"type": "number"}
	if min >= 0 {
		schema["minimum"] = min
	}
	return schema
}

func numberRange(min, max float64) map[string]any {
	return map[string]any{"type": "number", "minimum": min, "maximum": max}
}
