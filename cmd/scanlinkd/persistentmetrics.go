package main

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/syndtr/goleveldb/leveldb"
)

// persistentMetrics backs selected gauges with LevelDB so totals survive
// daemon restarts.
type persistentMetrics struct {
	db *leveldb.DB
}

func (p *persistentMetrics) NewGauge(opts prometheus.GaugeOpts) *persistentGauge {
	g := promauto.NewGauge(opts)

	pg := &persistentGauge{pm: p, key: []byte(opts.Name), g: g}
	valBytes, err := p.db.Get(pg.key, nil)
	if err == nil {
		pg.val = math.Float64frombits(binary.BigEndian.Uint64(valBytes))
		slog.Debug("restoring", "name", opts.Name, "val", pg.val)
		g.Set(pg.val)
	}
	return pg
}

type persistentGauge struct {
	pm  *persistentMetrics
	key []byte
	g   prometheus.Gauge

	mut sync.Mutex
	val float64
}

func (p *persistentGauge) Set(value float64) {
	p.mut.Lock()
	p.val = value
	p.mut.Unlock()
	p.g.Set(value)
	p.store(value)
}

func (p *persistentGauge) Add(delta float64) {
	p.mut.Lock()
	p.val += delta
	value := p.val
	p.mut.Unlock()
	p.g.Add(delta)
	p.store(value)
}

func (p *persistentGauge) store(value float64) {
	var valBytes [8]byte
	binary.BigEndian.PutUint64(valBytes[:], math.Float64bits(value))
	_ = p.pm.db.Put(p.key, valBytes[:], nil)
}
