package metrics

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const storeQueryTimeout = 5 * time.Second

// storeCollector reports per-machine sample counts and data freshness
// from machine_samples on every scrape.
type storeCollector struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time

	samples *prometheus.Desc
	age     *prometheus.Desc
}

type machineStat struct {
	machine string
	samples int64
	latest  time.Time
}

func newStoreCollector(db *sql.DB, logger *log.Logger) *storeCollector {
	return &storeCollector{
		db:     db,
		logger: logger,
		now:    time.Now,
		samples: prometheus.NewDesc(
			metricPrefix+"stored_samples",
			"Stored raw samples per machine",
			[]string{"machine"}, nil,
		),
		age: prometheus.NewDesc(
			metricPrefix+"latest_sample_age_seconds",
			"Seconds since the newest stored sample per machine",
			[]string{"machine"}, nil,
		),
	}
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(newStoreCollector(db, logger))
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.samples
	ch <- c.age
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.query()
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("metrics query failed: %v", err)
		}
		return
	}
	for _, m := range c.metrics(stats) {
		ch <- m
	}
}

func (c *storeCollector) query() ([]machineStat, error) {
	if c.db == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeQueryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
SELECT machine_id, COUNT(*), MAX(ts)
FROM machine_samples
GROUP BY machine_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []machineStat
	for rows.Next() {
		var s machineStat
		if err := rows.Scan(&s.machine, &s.samples, &s.latest); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (c *storeCollector) metrics(stats []machineStat) []prometheus.Metric {
	now := c.now()
	out := make([]prometheus.Metric, 0, 2*len(stats))
	for _, s := range stats {
		age := now.Sub(s.latest).Seconds()
		if age < 0 {
			age = 0
		}
		out = append(out,
			prometheus.MustNewConstMetric(c.samples, prometheus.GaugeValue, float64(s.samples), s.machine),
			prometheus.MustNewConstMetric(c.age, prometheus.GaugeValue, age, s.machine),
		)
	}
	return out
}
