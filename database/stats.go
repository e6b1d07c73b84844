package database

import (
	"context"
	"fmt"
	"strings"
)

// Counter names one of the per-day statistics columns.
type Counter string

const (
	CounterViews Counter = "views"
	CounterScans Counter = "scans"
)

func (c Counter) Valid() bool {
	return c == CounterViews || c == CounterScans
}

const dayLayout = "2006-01-02"

// AddStatistic increments one counter for today's row of the restaurant, creating the
// row when it is the first hit of the day.
func (s *Store) AddStatistic(ctx context.Context, restaurantID int64, counter Counter) error {
	if !counter.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCounter, string(counter))
	}
	day := s.now().Format(dayLayout)
	if err := s.eng.bumpCounter(ctx, restaurantID, day, counter); err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Warn("failed to add statistic")
		return err
	}
	return nil
}

// UpdateTimestamp stamps updated_at on a single row.
func (s *Store) UpdateTimestamp(ctx context.Context, table string, id int64) error {
	_, err := s.Exec(ctx, Update(table).Assign("updated_at", CurrentTimestamp).Where("id", id))
	return err
}

type Counts struct {
	Views int64 `json:"views"`
	Scans int64 `json:"scans"`
}

func (c *Counts) add(views, scans int64) {
	c.Views += views
	c.Scans += scans
}

type Stats struct {
	Today Counts `json:"today"`
	Month Counts `json:"month"`
	Total Counts `json:"total"`
}

// RestaurantStats sums the restaurant's daily rows into today, this month and all-time
// windows. A restaurant without rows gets zeroes.
func (s *Store) RestaurantStats(ctx context.Context, restaurantID int64) (Stats, error) {
	rows, err := s.Find(ctx, Select("statistics", "date", "views", "scans").Where("restaurant_id", restaurantID))
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	today := now.Format(dayLayout)
	month := now.Format("2006-01")

	var st Stats
	for _, row := range rows {
		day := fmt.Sprint(row["date"])
		views, _ := toInt64(row["views"])
		scans, _ := toInt64(row["scans"])

		st.Total.add(views, scans)
		if strings.HasPrefix(day, month) {
			st.Month.add(views, scans)
		}
		if strings.HasPrefix(day, today) {
			st.Today.add(views, scans)
		}
	}
	return st, nil
}
