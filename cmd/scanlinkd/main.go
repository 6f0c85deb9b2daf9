package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/afmlab/scanlink"
	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/thejerf/suture/v4"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type CLI struct {
	Port         string        `help:"Serial port (default: first detected)" env:"SCANLINK_PORT"`
	Baud         int           `default:"115200" help:"Serial baud rate"`
	Listen       string        `default:"0.0.0.0:2116" help:"HTTP listener address"`
	PollInterval time.Duration `default:"100ms" help:"Pause between serial reads"`
	DB           string        `default:"scanlinkd.db" help:"Path to the metrics database"`
	ListPorts    bool          `help:"List serial ports and exit"`

	Scan      bool `help:"Start a scan once connected"`
	ScanX     int  `default:"0" help:"Scan window X origin"`
	ScanY     int  `default:"0" help:"Scan window Y origin"`
	ScanSpeed int  `default:"2000" help:"Per-sample delay in microseconds"`
	ScanGap   int  `default:"1" help:"Gap between scan lines"`

	MQTTBroker   string `help:"MQTT broker address" env:"MQTT_BROKER"`
	MQTTClientID string `help:"MQTT client ID" env:"MQTT_CLIENT_ID"`
	MQTTUsername string `help:"MQTT username" default:"" env:"MQTT_USERNAME"`
	MQTTPassword string `help:"MQTT password" default:"" env:"MQTT_PASSWORD"`
}

var (
	scalarValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "afm_scalar_value",
	})
	scanLineIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "afm_scan_line_index",
	})
	sessionInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "afm_session_info",
	}, []string{"port"})
)

func main() {
	var cli CLI
	kong.Parse(&cli)

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	})))

	if cli.ListPorts {
		ports, err := scanlink.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			os.Stdout.WriteString(p + "\n")
		}
		return
	}

	if cli.Port == "" {
		ports, err := scanlink.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		if len(ports) == 0 {
			log.Fatal("no serial ports found")
		}
		cli.Port = ports[0]
	}
	instance := sanitizeString(cli.Port)
	sessionInfo.WithLabelValues(instance).Set(1)

	db, err := leveldb.OpenFile(cli.DB, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	pm := &persistentMetrics{db: db}
	scalarsTotal := pm.NewGauge(prometheus.GaugeOpts{Name: "afm_scalar_samples_total"})
	linesTotal := pm.NewGauge(prometheus.GaugeOpts{Name: "afm_scan_lines_total"})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sup := suture.NewSimple("main")
	go sup.ServeBackground(ctx)

	go func() {
		if err := http.ListenAndServe(cli.Listen, promhttp.Handler()); err != nil {
			log.Fatal(err)
		}
	}()

	var mqttPub *mqttPublisher
	if cli.MQTTBroker != "" {
		mqttPub, err = newMQTTPublisher(&cli, instance)
		if err != nil {
			log.Fatal(err)
		}
		sup.Add(mqttPub)
	}

	frames := make(chan scanlink.Frame, 256)
	errs := make(chan error, 1)
	worker := scanlink.NewWorker(frames, errs)
	worker.PollInterval = cli.PollInterval
	worker.Start(scanlink.Params{Port: cli.Port, BaudRate: cli.Baud})
	slog.Info("connecting", "port", cli.Port, "baud", cli.Baud)

	if cli.Scan {
		go startScanWhenConnected(&cli, worker)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			worker.Stop()
			<-worker.Done()
			return

		case err := <-errs:
			slog.Error("connection lost", "err", err)
			worker.Stop()
			<-worker.Done()
			os.Exit(1)

		case f := <-frames:
			switch f := f.(type) {
			case scanlink.ScalarSample:
				scalarValue.Set(float64(f.Value))
				scalarsTotal.Add(1)
				if mqttPub != nil {
					mqttPub.Publish(f.Value)
				}
			case scanlink.LineSample:
				scanLineIndex.Set(float64(f.Index))
				linesTotal.Add(1)
			}
		}
	}
}

func startScanWhenConnected(cli *CLI, worker *scanlink.Worker) {
	for worker.State() != scanlink.Running {
		if worker.State() == scanlink.Stopped {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := worker.StartScan(cli.ScanX, cli.ScanY, cli.ScanSpeed, cli.ScanGap); err != nil {
		slog.Error("start scan", "err", err)
		return
	}
	slog.Info("scan started", "x", cli.ScanX, "y", cli.ScanY, "speed", cli.ScanSpeed, "gap", cli.ScanGap)
}

func sanitizeString(s string) string {
	// Remove diacritics.
	t := transform.Chain(
		// Split runes with diacritics into base character and mark.
		norm.NFD,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII
		})))
	res, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	res = strings.ReplaceAll(res, "/", "_")
	res = strings.Trim(res, "_")
	return strings.ReplaceAll(strings.ToLower(res), " ", "_")
}
