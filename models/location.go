// location.go - Defines the Location model and its sensor sample sequences

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SensorKinds lists the recognised sensor fields in their canonical order.
// Each name is both the request key and the column holding the sequence.
var SensorKinds = []string{"temperature", "humidity", "sound", "dust", "gas"}

// Samples is an append-only sequence of readings stored as a JSON array column.
type Samples = datatypes.JSONSlice[float64]

// Location is a named site with its sample history and rating metadata.
// Every sequence column is a JSON array so that appends are single-row updates.
type Location struct {
	ID           string                      `gorm:"primaryKey;size:36" json:"id"`
	Name         string                      `gorm:"uniqueIndex;not null;check:chk_locations_name,name <> ''" json:"name"`
	Description  string                      `json:"description"`
	Image        string                      `json:"image"`
	Temperature  Samples                     `json:"temperature"`
	Humidity     Samples                     `json:"humidity"`
	Sound        Samples                     `json:"sound"`
	Dust         Samples                     `json:"dust"`
	Gas          Samples                     `json:"gas"`
	StarsRatings datatypes.JSONSlice[int]    `json:"starsRatings"`
	UsersRated   datatypes.JSONSlice[string] `json:"usersRated"`
	CreatedAt    time.Time                   `gorm:"index" json:"createdAt"`
}

func (Location) TableName() string { return "locations" }

// NewLocation builds a record whose sequences hold the single supplied value
// per sensor kind; kinds without a value start empty.
func NewLocation(name string, values map[string]float64) *Location {
	loc := &Location{Name: name}
	loc.normalize()
	for kind, v := range values {
		if seq := loc.sequence(kind); seq != nil {
			*seq = append(*seq, v)
		}
	}
	return loc
}

// BeforeCreate assigns the id and guarantees no sequence is persisted as JSON null.
func (l *Location) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.normalize()
	return nil
}

// AfterFind keeps empty sequences rendering as [] rather than null.
func (l *Location) AfterFind(*gorm.DB) error {
	l.normalize()
	return nil
}

func (l *Location) normalize() {
	for _, kind := range SensorKinds {
		if seq := l.sequence(kind); *seq == nil {
			*seq = Samples{}
		}
	}
	if l.StarsRatings == nil {
		l.StarsRatings = datatypes.JSONSlice[int]{}
	}
	if l.UsersRated == nil {
		l.UsersRated = datatypes.JSONSlice[string]{}
	}
}

func (l *Location) sequence(kind string) *Samples {
	switch kind {
	case "temperature":
		return &l.Temperature
	case "humidity":
		return &l.Humidity
	case "sound":
		return &l.Sound
	case "dust":
		return &l.Dust
	case "gas":
		return &l.Gas
	}
	return nil
}

// Series returns the stored sequence for a sensor kind, or nil for an unknown kind.
func (l *Location) Series(kind string) []float64 {
	if seq := l.sequence(kind); seq != nil {
		return *seq
	}
	return nil
}

// ReadingsView is the ingest response projection: rating and descriptive
// fields are left out.
type ReadingsView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Temperature []float64 `json:"temperature"`
	Humidity    []float64 `json:"humidity"`
	Sound       []float64 `json:"sound"`
	Dust        []float64 `json:"dust"`
	Gas         []float64 `json:"gas"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Readings projects the location for ingest responses.
func (l *Location) Readings() ReadingsView {
	l.normalize()
	return ReadingsView{
		ID:          l.ID,
		Name:        l.Name,
		Temperature: l.Temperature,
		Humidity:    l.Humidity,
		Sound:       l.Sound,
		Dust:        l.Dust,
		Gas:         l.Gas,
		CreatedAt:   l.CreatedAt,
	}
}
