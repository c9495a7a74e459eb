// Package clients is the registry of every library adapter the benchmark
// knows how to drive.
package clients

import (
	"fmt"
	"strings"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/clients/gormclient"
	"github.com/weiihann/ormbench/clients/ksqlclient"
	"github.com/weiihann/ormbench/clients/pgwire"
	"github.com/weiihann/ormbench/clients/pgxasync"
	"github.com/weiihann/ormbench/clients/pgxclient"
	"github.com/weiihann/ormbench/clients/pqclient"
	"github.com/weiihann/ormbench/clients/sqlxclient"
)

// Known returns every supported adapter in report order.
func Known() []bench.Adapter {
	return []bench.Adapter{
		gormclient.Adapter,
		sqlxclient.Adapter,
		pgwire.Adapter,
		pgxclient.Adapter,
		pgxasync.Adapter,
		pqclient.Adapter,
		ksqlclient.Adapter,
	}
}

// Names returns the names of the known adapters.
func Names() []string {
	known := Known()
	names := make([]string, len(known))

	for i, a := range known {
		names[i] = a.Name
	}

	return names
}

// Lookup resolves adapter names, preserving their order. An empty list
// selects every known adapter.
func Lookup(names []string) ([]bench.Adapter, error) {
	if len(names) == 0 {
		return Known(), nil
	}

	byName := make(map[string]bench.Adapter)
	for _, a := range Known() {
		byName[a.Name] = a
	}

	seen := make(map[string]bool, len(names))
	out := make([]bench.Adapter, 0, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)

		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf(
				"unknown client %q (known: %s)", name, strings.Join(Names(), ", "),
			)
		}

		if seen[name] {
			continue
		}
		seen[name] = true

		out = append(out, a)
	}

	return out, nil
}
