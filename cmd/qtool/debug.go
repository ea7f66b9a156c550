package main

import (
	"os"
	"strconv"
	"strings"
)

type dbgVar struct {
	name  string
	value *int32
}

// debug holds the switches parsed from QTOOL_DEBUG. Both are ports; 0 means
// the corresponding server is not started.
var debug struct {
	pprof   int32
	metrics int32
}

var dbgvars = []dbgVar{
	{"pprof", &debug.pprof},
	{"metrics", &debug.metrics},
}

func init() {
	for p := os.Getenv("QTOOL_DEBUG"); p != ""; {
		field := ""
		i := strings.Index(p, ",")
		if i < 0 {
			field, p = p, ""
		} else {
			field, p = p[:i], p[i+1:]
		}
		i = strings.Index(field, "=")
		if i < 0 {
			continue
		}
		key, value := field[:i], field[i+1:]

		for _, v := range dbgvars {
			if v.name == key {
				if n, err := strconv.Atoi(value); err == nil {
					*v.value = int32(n)
				}
			}
		}
	}
}
