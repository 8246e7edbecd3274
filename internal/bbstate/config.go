// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"strings"

	bberrors "github.com/jontk/bb-agent/pkg/errors"
	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/uidresolve"

	fileconfig "github.com/jontk/bb-agent/pkg/config"
)

// NiceOffset is the system's largest representable nice value; used as a
// clamp on the priority-boost parameters.
const NiceOffset = 10000

// Config holds the parameters loaded once per plugin instance.
type Config struct {
	AllowUsersStr string
	AllowUsers    []uint32
	DenyUsersStr  string
	DenyUsers     []uint32

	GetSysState string

	Granularity uint32

	Gres []GresCounter

	JobSizeLimit  uint32
	UserSizeLimit uint32

	PrioBoostAlloc uint32
	PrioBoostUse   uint32

	PrivateData bool
	DebugFlag   bool

	StageInTimeout  uint32
	StageOutTimeout uint32

	StartStageIn  string
	StartStageOut string
	StopStageIn   string
	StopStageOut  string

	// SourcePath records which file was actually loaded, for logging only.
	SourcePath string
}

// ClearConfig resets c. When final is false, the Gres class names are
// preserved and only their AvailCnt/UsedCnt are zeroed. When final is
// true, the Gres list itself is cleared. LoadConfig does not call
// ClearConfig: it always builds a fresh Config, so Gres classes from an
// earlier load are not carried into a new one.
func (c *Config) ClearConfig(final bool) {
	if final {
		*c = Config{}
		return
	}

	gres := c.Gres
	for i := range gres {
		gres[i].AvailCnt = 0
		gres[i].UsedCnt = 0
	}

	sourcePath := c.SourcePath
	*c = Config{Gres: gres, SourcePath: sourcePath}
}

// LoadConfig loads and validates burst_buffer.conf (or
// burst_buffer_<pluginType>.conf) from confDir, producing a Config
// record. Granularity of 0 is forced to 1 with a warning; priority-boost
// values are clamped to NiceOffset rather than rejected.
func LoadConfig(confDir, pluginType string, resolver uidresolve.Resolver, logger logging.Logger) (*Config, error) {
	path, err := fileconfig.FindConfFile(confDir, pluginType)
	if err != nil {
		return nil, bberrors.Configuration("bbstate.LoadConfig", "unable to find configuration file", err)
	}

	table, err := fileconfig.Load(path)
	if err != nil {
		return nil, bberrors.Configuration("bbstate.LoadConfig", "failed to read "+path, err)
	}

	cfg := &Config{SourcePath: path}

	if v, ok := table.String("AllowUsers"); ok {
		cfg.AllowUsersStr = v
		cfg.AllowUsers = ParseUsers(v, resolver, logger)
	}
	if v, ok := table.String("DenyUsers"); ok {
		cfg.DenyUsersStr = v
		cfg.DenyUsers = ParseUsers(v, resolver, logger)
	}

	if v, ok := table.String("GetSysState"); ok {
		cfg.GetSysState = v
	}

	cfg.Granularity = 1
	if v, ok := table.String("Granularity"); ok {
		g := GresCount(v)
		if g == 0 {
			logger.Warn("Granularity=0 is invalid, forcing to 1")
			g = 1
		}
		cfg.Granularity = g
	}

	if v, ok := table.String("Gres"); ok {
		cfg.Gres = parseGres(v)
	}

	if v, ok := table.String("JobSizeLimit"); ok {
		cfg.JobSizeLimit = ParseSize(v, 1)
	}
	if v, ok := table.String("UserSizeLimit"); ok {
		cfg.UserSizeLimit = ParseSize(v, 1)
	}

	if v, ok := table.Uint32("PrioBoostAlloc"); ok {
		cfg.PrioBoostAlloc = clampNice(v, logger, "PrioBoostAlloc")
	}
	if v, ok := table.Uint32("PrioBoostUse"); ok {
		cfg.PrioBoostUse = clampNice(v, logger, "PrioBoostUse")
	}

	if v, ok := table.Bool("PrivateData"); ok {
		cfg.PrivateData = v
	}

	if v, ok := table.Uint32("StageInTimeout"); ok {
		cfg.StageInTimeout = v
	}
	if v, ok := table.Uint32("StageOutTimeout"); ok {
		cfg.StageOutTimeout = v
	}

	cfg.StartStageIn, _ = table.String("StartStageIn")
	cfg.StartStageOut, _ = table.String("StartStageOut")
	cfg.StopStageIn, _ = table.String("StopStageIn")
	cfg.StopStageOut, _ = table.String("StopStageOut")

	if logger != nil {
		logger.Debug("loaded burst buffer configuration",
			"path", path,
			"granularity", cfg.Granularity,
			"gres_count", len(cfg.Gres),
			"prio_boost_alloc", cfg.PrioBoostAlloc,
			"prio_boost_use", cfg.PrioBoostUse,
		)
	}

	return cfg, nil
}

func clampNice(v uint32, logger logging.Logger, key string) uint32 {
	if v > NiceOffset {
		logger.Warn(key+" can not exceed NiceOffset, clamping", "value", v, "max", NiceOffset)
		return NiceOffset
	}
	return v
}

// parseGres parses "name[:count],name[:count],..." using GresCount (the
// base-1024, no-granularity size variant), defaulting count to 1 when
// omitted.
func parseGres(text string) []GresCounter {
	var out []GresCounter
	for _, tok := range strings.Split(text, ",") {
		if tok == "" {
			continue
		}
		name := tok
		count := uint32(1)
		if i := strings.IndexByte(tok, ':'); i >= 0 {
			name = tok[:i]
			count = GresCount(tok[i+1:])
		}
		out = append(out, GresCounter{Name: name, AvailCnt: count})
	}
	return out
}
