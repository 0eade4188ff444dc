package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gokaycavdar/go-urlguard/pkg/config"
	"github.com/gokaycavdar/go-urlguard/pkg/engine"
	"github.com/gokaycavdar/go-urlguard/pkg/geoip"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
)

// buildEngine assembles the analyzer from configuration. The returned func
// releases the GeoIP databases, if any were opened.
func buildEngine(cfg config.AnalysisConfig, geo config.GeoIPConfig, logger *logrus.Logger) (*engine.URLGuard, func(), error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	ecfg := engine.Config{
		Random:          engine.NewRandom(seed),
		Delayer:         engine.TimerDelay{},
		StepDelay:       cfg.StepDelay,
		PassProbability: cfg.PassProbability,
		Clock:           time.Now,
	}

	release := func() {}
	if geo.Enabled() {
		svc, err := geoip.NewService(geo.CityDB, geo.ASNDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open geoip databases: %w", err)
		}
		ecfg.Resolver = svc
		release = svc.Close
		logger.WithFields(logrus.Fields{"city_db": geo.CityDB, "asn_db": geo.ASNDB}).Info("geoip enrichment enabled")
	}

	guard := engine.New(ecfg)
	guard.AddRules(rules.Default()...)
	if cfg.Blocklist != "" {
		bl, err := rules.LoadBlocklistRule(cfg.Blocklist)
		if err != nil {
			release()
			return nil, nil, err
		}
		guard.AddRule(bl)
		logger.WithFields(logrus.Fields{"file": cfg.Blocklist, "entries": bl.Len()}).Info("blocklist loaded")
	}
	logger.WithFields(logrus.Fields{
		"rules":            len(guard.Rules()),
		"step_delay":       cfg.StepDelay.String(),
		"pass_probability": cfg.PassProbability,
	}).Debug("engine ready")
	return guard, release, nil
}
