package app

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// LoadEnvFiles loads one or more dotenv files of KEY=VALUE pairs into the
// process environment. Later files override earlier ones, but a variable
// already set to a non-empty value in the real environment is kept. Lines
// starting with '#' and blank lines are ignored. Values are not expanded.
func LoadEnvFiles(paths ...string) error {
	merged := map[string]string{}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		vals, err := ReadEnvFile(p)
		if err != nil {
			// Missing files are not fatal; continue to next path
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		for k, v := range vals {
			merged[k] = v
		}
	}
	for k, v := range merged {
		if cur, set := os.LookupEnv(k); set && strings.TrimSpace(cur) != "" {
			continue
		}
		_ = os.Setenv(k, v)
	}
	return nil
}

// ReadEnvFile parses a dotenv file without touching the process environment.
// An optional leading "export " is accepted.
func ReadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		// Simple KEY=VALUE parser; stops at first '='
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		// strip optional surrounding quotes
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}
		out[key] = val
	}
	return out, scanner.Err()
}
