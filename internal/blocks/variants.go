package blocks

import "slices"

// TextData is a rich text paragraph. Content holds markdown.
type TextData struct {
	Content string `json:"content"`
}

// HeadingData is a section title.
type HeadingData struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ItineraryData is a day-by-day programme.
type ItineraryData struct {
	Title string `json:"title"`
	Days  []Day  `json:"days"`
}

// Day is one itinerary day.
type Day struct {
	ID          string   `json:"id"`
	DayNumber   int      `json:"dayNumber"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Meals       Meals    `json:"meals"`
	Activities  []string `json:"activities"`
}

// Meals flags the meals included on a day.
type Meals struct {
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	Dinner    bool `json:"dinner"`
}

// ServicesData lists what the trip includes and excludes.
type ServicesData struct {
	Title    string   `json:"title"`
	Includes []string `json:"includes"`
	Excludes []string `json:"excludes"`
}

const (
	PriceTypePerPerson = "per_person"
	PriceTypePerGroup  = "per_group"
	PriceTypeTotal     = "total"
)

// PriceData is the trip price with optional extras.
type PriceData struct {
	BasePrice float64       `json:"basePrice"`
	Currency  string        `json:"currency"`
	PriceType string        `json:"priceType"`
	Options   []PriceOption `json:"options"`
	Notes     string        `json:"notes"`
}

// PriceOption is an optional supplement or alternative price.
type PriceOption struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// ImageData is a single uploaded image.
type ImageData struct {
	URL         string `json:"url"`
	Alt         string `json:"alt"`
	Caption     string `json:"caption"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	UploadID    string `json:"uploadId,omitempty"`
	IsUploading bool   `json:"isUploading,omitempty"`
}

// GalleryData is a grid of images.
type GalleryData struct {
	Title   string         `json:"title"`
	Columns int            `json:"columns"`
	Images  []GalleryImage `json:"images"`
}

// GalleryImage is one gallery entry. While uploading, ID is the upload's
// temporary id.
type GalleryImage struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Alt         string `json:"alt"`
	Caption     string `json:"caption"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	IsUploading bool   `json:"isUploading,omitempty"`
}

// FileData is a downloadable attachment.
type FileData struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Description string `json:"description"`
	UploadID    string `json:"uploadId,omitempty"`
	IsUploading bool   `json:"isUploading,omitempty"`
}

// AccommodationData describes a hotel or lodge stay.
type AccommodationData struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
	Nights      int    `json:"nights"`
	RoomType    string `json:"roomType"`
	MealPlan    string `json:"mealPlan"`
	ImageURL    string `json:"imageUrl"`
}

// ActivityData describes an excursion or experience.
type ActivityData struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Duration    string  `json:"duration"`
	Included    bool    `json:"included"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
}

const (
	TransportCar      = "car"
	TransportBus      = "bus"
	TransportTrain    = "train"
	TransportBoat     = "boat"
	TransportTransfer = "transfer"
	TransportOther    = "other"
)

// TransportData describes a ground or sea leg.
type TransportData struct {
	Mode          string `json:"mode"`
	From          string `json:"from"`
	To            string `json:"to"`
	DepartureTime string `json:"departureTime"`
	Duration      string `json:"duration"`
	Description   string `json:"description"`
}

// FlightData lists flight segments.
type FlightData struct {
	Segments []Segment `json:"segments"`
	Baggage  string    `json:"baggage"`
	Notes    string    `json:"notes"`
}

// Segment is one flight leg.
type Segment struct {
	ID            string `json:"id"`
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flightNumber"`
	From          string `json:"from"`
	To            string `json:"to"`
	DepartureDate string `json:"departureDate"`
	DepartureTime string `json:"departureTime"`
	ArrivalDate   string `json:"arrivalDate"`
	ArrivalTime   string `json:"arrivalTime"`
	Cabin         string `json:"cabin"`
}

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// FoodData describes a meal or dining experience.
type FoodData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MealType    string `json:"mealType"`
	Restaurant  string `json:"restaurant"`
	Cuisine     string `json:"cuisine"`
	Included    bool   `json:"included"`
}

// CancellationPolicyData lists penalty tiers.
type CancellationPolicyData struct {
	Title string             `json:"title"`
	Rules []CancellationRule `json:"rules"`
	Notes string             `json:"notes"`
}

// CancellationRule charges PenaltyPercent when cancelling DaysBefore or fewer
// days before departure.
type CancellationRule struct {
	ID             string  `json:"id"`
	DaysBefore     int     `json:"daysBefore"`
	PenaltyPercent float64 `json:"penaltyPercent"`
	Description    string  `json:"description"`
}

func (*TextData) Type() Type               { return TypeText }
func (*HeadingData) Type() Type            { return TypeHeading }
func (*ItineraryData) Type() Type          { return TypeItinerary }
func (*ServicesData) Type() Type           { return TypeServices }
func (*PriceData) Type() Type              { return TypePrice }
func (*ImageData) Type() Type              { return TypeImage }
func (*GalleryData) Type() Type            { return TypeGallery }
func (*FileData) Type() Type               { return TypeFile }
func (*AccommodationData) Type() Type      { return TypeAccommodation }
func (*ActivityData) Type() Type           { return TypeActivity }
func (*TransportData) Type() Type          { return TypeTransport }
func (*FlightData) Type() Type             { return TypeFlight }
func (*FoodData) Type() Type               { return TypeFood }
func (*CancellationPolicyData) Type() Type { return TypeCancellationPolicy }

// Flat payloads: a value copy is a deep copy.

func (d *TextData) clone() Data          { c := *d; return &c }
func (d *HeadingData) clone() Data       { c := *d; return &c }
func (d *ImageData) clone() Data         { c := *d; return &c }
func (d *FileData) clone() Data          { c := *d; return &c }
func (d *AccommodationData) clone() Data { c := *d; return &c }
func (d *ActivityData) clone() Data      { c := *d; return &c }
func (d *TransportData) clone() Data     { c := *d; return &c }
func (d *FoodData) clone() Data          { c := *d; return &c }

func (*TextData) settle(IDGenerator, bool)          {}
func (*HeadingData) settle(IDGenerator, bool)       {}
func (*ImageData) settle(IDGenerator, bool)         {}
func (*FileData) settle(IDGenerator, bool)          {}
func (*AccommodationData) settle(IDGenerator, bool) {}
func (*ActivityData) settle(IDGenerator, bool)      {}
func (*TransportData) settle(IDGenerator, bool)     {}
func (*FoodData) settle(IDGenerator, bool)          {}

func (d *ItineraryData) clone() Data {
	c := *d
	c.Days = make([]Day, len(d.Days))
	for i, day := range d.Days {
		day.Activities = slices.Clone(day.Activities)
		c.Days[i] = day
	}
	return &c
}

func (d *ItineraryData) settle(next IDGenerator, fresh bool) {
	if d.Days == nil {
		d.Days = []Day{}
	}
	seen := make(map[string]struct{}, len(d.Days))
	for i := range d.Days {
		assignID(&d.Days[i].ID, seen, next, fresh)
		if d.Days[i].Activities == nil {
			d.Days[i].Activities = []string{}
		}
	}
}

func (d *ServicesData) clone() Data {
	c := *d
	c.Includes = slices.Clone(d.Includes)
	c.Excludes = slices.Clone(d.Excludes)
	return &c
}

func (d *ServicesData) settle(IDGenerator, bool) {
	if d.Includes == nil {
		d.Includes = []string{}
	}
	if d.Excludes == nil {
		d.Excludes = []string{}
	}
}

func (d *PriceData) clone() Data {
	c := *d
	c.Options = slices.Clone(d.Options)
	return &c
}

func (d *PriceData) settle(next IDGenerator, fresh bool) {
	if d.Options == nil {
		d.Options = []PriceOption{}
	}
	seen := make(map[string]struct{}, len(d.Options))
	for i := range d.Options {
		assignID(&d.Options[i].ID, seen, next, fresh)
	}
}

func (d *GalleryData) clone() Data {
	c := *d
	c.Images = slices.Clone(d.Images)
	return &c
}

func (d *GalleryData) settle(next IDGenerator, fresh bool) {
	if d.Images == nil {
		d.Images = []GalleryImage{}
	}
	seen := make(map[string]struct{}, len(d.Images))
	for i := range d.Images {
		assignID(&d.Images[i].ID, seen, next, fresh)
	}
}

func (d *FlightData) clone() Data {
	c := *d
	c.Segments = slices.Clone(d.Segments)
	return &c
}

func (d *FlightData) settle(next IDGenerator, fresh bool) {
	if d.Segments == nil {
		d.Segments = []Segment{}
	}
	seen := make(map[string]struct{}, len(d.Segments))
	for i := range d.Segments {
		assignID(&d.Segments[i].ID, seen, next, fresh)
	}
}

func (d *CancellationPolicyData) clone() Data {
	c := *d
	c.Rules = slices.Clone(d.Rules)
	return &c
}

func (d *CancellationPolicyData) settle(next IDGenerator, fresh bool) {
	if d.Rules == nil {
		d.Rules = []CancellationRule{}
	}
	seen := make(map[string]struct{}, len(d.Rules))
	for i := range d.Rules {
		assignID(&d.Rules[i].ID, seen, next, fresh)
	}
}

// assignID gives a nested record a new id when fresh is set, when it has none,
// or when an earlier sibling already uses it.
func assignID(id *string, seen map[string]struct{}, next IDGenerator, fresh bool) {
	_, duplicate := seen[*id]
	if next != nil && (fresh || *id == "" || duplicate) {
		*id = next()
	}
	seen[*id] = struct{}{}
}
