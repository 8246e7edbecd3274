// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package config reads the flat "Key=Value" configuration files used by
// the burst buffer plugins (burst_buffer.conf, burst_buffer_<type>.conf).
// It knows nothing about which keys a particular plugin expects; callers
// pull typed values out of the parsed Table with the accessor methods.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// fold is the Unicode case fold applied to every config key before
// lookup, so "AllowUsers", "allowusers", and "ALLOWUSERS" collide the
// same way s_p_hashtbl_create's key comparison does.
var fold = cases.Fold()

func foldKey(key string) string {
	return fold.String(key)
}

// Table is a parsed configuration file: case-folded key to raw string
// value, so keys are looked up case-insensitively and the original
// casing of a key is not kept (the original parser's s_p_hashtbl_create does the
// same, since Slurm config keys are conventionally CamelCase but callers
// have historically varied on this).
type Table struct {
	values map[string]string
}

// Load reads and parses a single configuration file. Blank lines and lines
// whose first non-blank character is '#' are ignored. Each remaining line
// must be "Key=Value" or "Key Value"; surrounding whitespace is trimmed
// from both sides.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Table{values: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitKV(line)
		if !ok {
			continue
		}
		t.values[foldKey(key)] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// splitKV splits a configuration line on '=' first, falling back to the
// first run of whitespace, matching the two forms burst_buffer.conf has
// historically accepted.
func splitKV(line string) (key, value string, ok bool) {
	if i := strings.IndexByte(line, '='); i >= 0 {
		return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

// String returns the raw value for key and whether it was present.
func (t *Table) String(key string) (string, bool) {
	v, ok := t.values[foldKey(key)]
	return v, ok
}

// Uint32 returns the value for key parsed as a base-10 uint32.
func (t *Table) Uint32(key string) (uint32, bool) {
	v, ok := t.values[foldKey(key)]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Bool returns the value for key interpreted the way burst_buffer.conf's
// PrivateData does: "true", "yes", or "1", case-insensitively.
func (t *Table) Bool(key string) (bool, bool) {
	v, ok := t.values[foldKey(key)]
	if !ok {
		return false, false
	}
	lower := strings.ToLower(v)
	return lower == "true" || lower == "yes" || lower == "1", true
}

// FindConfFile searches confDir for "burst_buffer.conf" first, falling
// back to "burst_buffer_<pluginType>.conf". It mirrors bb_load_config's
// get_extra_conf_path search order: a generic file takes priority over a
// plugin-specific one so an operator can share one file across plugin
// types.
func FindConfFile(confDir, pluginType string) (string, error) {
	generic := filepath.Join(confDir, "burst_buffer.conf")
	if _, err := os.Stat(generic); err == nil {
		return generic, nil
	}

	specific := filepath.Join(confDir, "burst_buffer_"+pluginType+".conf")
	if _, err := os.Stat(specific); err == nil {
		return specific, nil
	}

	return "", &NotFoundError{ConfDir: confDir, PluginType: pluginType}
}

// NotFoundError reports that neither the generic nor plugin-specific
// configuration file could be found in ConfDir.
type NotFoundError struct {
	ConfDir    string
	PluginType string
}

func (e *NotFoundError) Error() string {
	return "unable to find burst_buffer.conf or burst_buffer_" + e.PluginType + ".conf in " + e.ConfDir
}
