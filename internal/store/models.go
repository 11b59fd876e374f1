package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Room struct {
	ID           int64  `json:"id"`
	Name         string `json:"name" validate:"required,max=120"`
	GameMasterID int64  `json:"gameMasterId"`
}

// Stats are the six ability scores, stored as JSONB.
type Stats struct {
	Strength     int `json:"strength" validate:"gte=1,lte=30"`
	Dexterity    int `json:"dexterity" validate:"gte=1,lte=30"`
	Constitution int `json:"constitution" validate:"gte=1,lte=30"`
	Intelligence int `json:"intelligence" validate:"gte=1,lte=30"`
	Wisdom       int `json:"wisdom" validate:"gte=1,lte=30"`
	Charisma     int `json:"charisma" validate:"gte=1,lte=30"`
}

func (s Stats) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Stats) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = Stats{}
		return nil
	}
	return fmt.Errorf("stats: unsupported type %T", src)
}

type Character struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"userId"`
	RoomID       *int64 `json:"roomId" validate:"omitempty,gt=0"`
	Name         string `json:"name" validate:"required,max=80"`
	Race         string `json:"race" validate:"required,max=40"`
	Class        string `json:"class" validate:"required,max=40"`
	Level        int    `json:"level" validate:"gte=1,lte=20"`
	Stats        Stats  `json:"stats"`
	HitPoints    int    `json:"hitPoints" validate:"gte=0,ltefield=MaxHitPoints"`
	MaxHitPoints int    `json:"maxHitPoints" validate:"gte=1"`
}

// CharacterPatch holds the fields of an update; nil means unchanged.
// ClearRoom takes the character out of its room.
type CharacterPatch struct {
	RoomID       *int64  `json:"roomId" validate:"omitempty,gt=0"`
	ClearRoom    bool    `json:"clearRoom" validate:"excluded_with=RoomID"`
	Name         *string `json:"name" validate:"omitempty,max=80"`
	Level        *int    `json:"level" validate:"omitempty,gte=1,lte=20"`
	Stats        *Stats  `json:"stats"`
	HitPoints    *int    `json:"hitPoints" validate:"omitempty,gte=0"`
	MaxHitPoints *int    `json:"maxHitPoints" validate:"omitempty,gte=1"`
}

// Apply returns c with the patch applied.
func (p CharacterPatch) Apply(c Character) Character {
	switch {
	case p.ClearRoom:
		c.RoomID = nil
	case p.RoomID != nil:
		room := *p.RoomID
		c.RoomID = &room
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Stats != nil {
		c.Stats = *p.Stats
	}
	if p.HitPoints != nil {
		c.HitPoints = *p.HitPoints
	}
	if p.MaxHitPoints != nil {
		c.MaxHitPoints = *p.MaxHitPoints
	}
	return c
}

type Item struct {
	ID          int64  `json:"id"`
	CharacterID int64  `json:"characterId"`
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=1000"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
}
