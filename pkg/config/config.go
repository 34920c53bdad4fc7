// Package config reads the cache hierarchy's configuration file: one
// whitespace-separated level-parameter record per line, terminated by a
// memory-layer record.
package config

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mlcachesim/mlcachesim/pkg/cache"
	"github.com/mlcachesim/mlcachesim/pkg/simerr"
)

// fieldsPerRecord is the fixed column count of a configuration line:
// total_size_bytes block_size hit_time lookup_overhead associativity split_flag.
const fieldsPerRecord = 6

// Load reads every level record from r and converts it into the core's
// LevelSpec, in file order. The last record must describe the memory
// layer (§6: all fields zero except hit_time).
func Load(r io.Reader) ([]cache.LevelSpec, error) {
	scanner := bufio.NewScanner(r)
	var specs []cache.LevelSpec
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		spec, err := parseRecord(line)
		if err != nil {
			return nil, &simerr.Error{Kind: simerr.ConfigError, Context: err.Error(), Line: lineNo}
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &simerr.Error{Kind: simerr.ConfigFileError, Context: err.Error()}
	}
	if len(specs) == 0 {
		return nil, &simerr.Error{Kind: simerr.ConfigFileError, Context: "configuration file has no records"}
	}
	return specs, nil
}

// parseRecord validates the exact wire format of §6: six
// whitespace-separated decimal integers, none of them signed. Any
// non-digit, non-whitespace character (including a leading minus sign)
// is a config_error.
func parseRecord(line string) (cache.LevelSpec, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerRecord {
		return cache.LevelSpec{}, &fieldCountError{got: len(fields), want: fieldsPerRecord}
	}

	values := make([]uint64, fieldsPerRecord)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return cache.LevelSpec{}, &malformedFieldError{field: f}
		}
		values[i] = v
	}

	totalSize, blockSize, hitTime, lookupOverhead, assoc, splitFlag := values[0], values[1], values[2], values[3], values[4], values[5]
	if splitFlag > 1 {
		return cache.LevelSpec{}, &malformedFieldError{field: fields[5]}
	}

	var totalBlocks uint64
	if blockSize != 0 {
		if totalSize%blockSize != 0 {
			return cache.LevelSpec{}, &notMultipleError{totalSize: totalSize, blockSize: blockSize}
		}
		totalBlocks = totalSize / blockSize
	} else {
		totalBlocks = totalSize
	}

	return cache.LevelSpec{
		TotalBlocks:    totalBlocks,
		BlockSize:      blockSize,
		HitTime:        hitTime,
		LookupOverhead: lookupOverhead,
		Associativity:  assoc,
		Split:          splitFlag == 1,
	}, nil
}

type fieldCountError struct{ got, want int }

func (e *fieldCountError) Error() string {
	return "expected " + strconv.Itoa(e.want) + " whitespace-separated fields, got " + strconv.Itoa(e.got)
}

type malformedFieldError struct{ field string }

func (e *malformedFieldError) Error() string {
	return "malformed field `" + e.field + "'"
}

type notMultipleError struct{ totalSize, blockSize uint64 }

func (e *notMultipleError) Error() string {
	return "total size not a multiple of block size"
}

// Validate re-runs the structural checks that depend on relationships
// between records rather than a single line: only the final record may
// have zero block attributes (the memory layer), and only level 0 may
// carry split.
func Validate(specs []cache.LevelSpec) error {
	for i, s := range specs {
		last := i == len(specs)-1
		if s.IsMemory() && !last {
			return &simerr.Error{Kind: simerr.ConfigError, Context: "only the final (memory) layer may have zeros in block attributes"}
		}
		if !s.IsMemory() {
			if err := s.Validate(); err != nil {
				return &simerr.Error{Kind: simerr.BadAssociativity, Context: err.Error()}
			}
		}
		if s.Split && i != 0 {
			return &simerr.Error{Kind: simerr.ConfigError, Context: "only level 0 may set split"}
		}
	}
	if !specs[len(specs)-1].IsMemory() {
		return &simerr.Error{Kind: simerr.ConfigError, Context: "final record must describe the memory layer"}
	}
	return nil
}
