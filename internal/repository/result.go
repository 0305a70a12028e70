package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/voxfield/minesweeper3d-server/internal/field"
)

// RoundResult is a finished round: its configuration and outcome, but
// never the grid itself.
type RoundResult struct {
	RoundResultID int64
	SessionID     string
	PlayerID      *int64
	Width         int
	Height        int
	Depth         int
	Density       float64
	Safety        string
	Won           bool
	StartedAt     pgtype.Timestamptz
	EndedAt       pgtype.Timestamptz
	CreatedAt     pgtype.Timestamptz
}

type CreateRoundResultParams struct {
	SessionID string
	PlayerID  *int64
	Params    field.Params
	Won       bool
	StartedAt time.Time
	EndedAt   time.Time
}

func (q *Queries) CreateRoundResult(
	ctx context.Context, params CreateRoundResultParams,
) (*RoundResult, error) {
	args := pgx.NamedArgs{
		"session_id": params.SessionID,
		"player_id":  params.PlayerID,
		"width":      params.Params.Width,
		"height":     params.Params.Height,
		"depth":      params.Params.Depth,
		"density":    params.Params.Density,
		"safety":     params.Params.Safety.String(),
		"won":        params.Won,
		"started_at": params.StartedAt,
		"ended_at":   params.EndedAt,
	}
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO round_result (
			session_id, player_id, width, height, depth,
			density, safety, won, started_at, ended_at
		)
		VALUES (
			@session_id, @player_id, @width, @height, @depth,
			@density, @safety, @won, @started_at, @ended_at
		)
		RETURNING *;`,
		args,
	)
	return pgx.CollectExactlyOneRow(
		rows, pgx.RowToAddrOfStructByName[RoundResult],
	)
}

type Highscore struct {
	SessionID  string  `json:"session_id"`
	Username   *string `json:"username"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Depth      int     `json:"depth"`
	Density    float64 `json:"density"`
	Safety     string  `json:"safety"`
	PlaytimeMs float64 `json:"playtime_ms"`
}

type HighscoreFilter struct {
	Username *string
	Params   *field.Params
}

func (f HighscoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Username != nil {
		clauses = append(clauses, "username = @username")
		args["username"] = *f.Username
	}
	if f.Params != nil {
		clauses = append(
			clauses,
			"width = @width",
			"height = @height",
			"depth = @depth",
			"density = @density",
			"safety = @safety",
		)
		args["width"] = f.Params.Width
		args["height"] = f.Params.Height
		args["depth"] = f.Params.Depth
		args["density"] = f.Params.Density
		args["safety"] = f.Params.Safety.String()
	}
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	query := `
	SELECT
		session_id,
		username,
		width,
		height,
		depth,
		density,
		safety,
		(
			extract('epoch' from ended_at) -
			extract('epoch' from started_at)
		) * 1000 playtime_ms
	FROM round_result
		LEFT OUTER JOIN player using (player_id)
	WHERE won = true
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}

	query += " ORDER BY playtime_ms;"

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}
