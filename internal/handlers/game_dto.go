package handlers

import (
	"net/url"

	"github.com/gorilla/schema"

	"github.com/voxfield/minesweeper3d-server/internal/field"
	"github.com/voxfield/minesweeper3d-server/internal/session"
)

var decoder = func() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}()

type createGameDTO struct {
	Width   int     `schema:"width,required"`
	Height  int     `schema:"height,required"`
	Depth   int     `schema:"depth,required"`
	Density float64 `schema:"density,required"`
	Safety  string  `schema:"safety"`
}

// ParseGameParams decodes and validates field parameters from a query
// string. Safety defaults to "safe".
func ParseGameParams(query url.Values) (field.Params, error) {
	var dto createGameDTO
	if err := decoder.Decode(&dto, query); err != nil {
		return field.Params{}, err
	}
	if dto.Safety == "" {
		dto.Safety = "safe"
	}
	safety, err := field.ParseSafety(dto.Safety)
	if err != nil {
		return field.Params{}, err
	}
	params := field.Params{
		Width:   dto.Width,
		Height:  dto.Height,
		Depth:   dto.Depth,
		Density: dto.Density,
		Safety:  safety,
	}
	return params, params.Validate()
}

type positionDTO struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
	Z int `schema:"z,required"`
}

func ParsePosition(query url.Values) (field.Index, error) {
	var dto positionDTO
	if err := decoder.Decode(&dto, query); err != nil {
		return field.Index{}, err
	}
	return field.Index{X: dto.X, Y: dto.Y, Z: dto.Z}, nil
}

// GameSessionDTO is the outward snapshot of one session, plus the
// disclosures produced by the command that triggered the response.
type GameSessionDTO struct {
	SessionID string           `json:"session_id"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Depth     int              `json:"depth"`
	Density   float64          `json:"density"`
	Safety    string           `json:"safety"`
	Status    string           `json:"status"`
	Grid      []field.CellView `json:"grid"`
	StartedAt int64            `json:"started_at"`
	EndedAt   *int64           `json:"ended_at,omitempty"`
	Events    []session.Event  `json:"events,omitempty"`
}

func NewGameSessionDTO(id string, s *session.Session, events []session.Event) GameSessionDTO {
	params := s.Params()
	dto := GameSessionDTO{
		SessionID: id,
		Width:     params.Width,
		Height:    params.Height,
		Depth:     params.Depth,
		Density:   params.Density,
		Safety:    params.Safety.String(),
		Status:    s.Status().String(),
		Grid:      s.View(),
		StartedAt: s.StartedAt().UnixMilli(),
		Events:    events,
	}
	if !s.EndedAt().IsZero() {
		endedAt := s.EndedAt().UnixMilli()
		dto.EndedAt = &endedAt
	}
	return dto
}
