// Package batch reviews many requests from a YAML file concurrently.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dshills/designcritic/internal/critique"
	"github.com/dshills/designcritic/internal/pipeline"
)

// DefaultConcurrency bounds in-flight reviews when none is given.
const DefaultConcurrency = 4

// Reviewer runs a single review. *pipeline.Reviewer satisfies it.
type Reviewer interface {
	Review(ctx context.Context, req critique.Request) (*pipeline.Outcome, error)
}

// Item is one entry of a batch file.
type Item struct {
	ID               string `yaml:"id" json:"id"`
	critique.Request `yaml:",inline"`
}

type file struct {
	Requests []Item `yaml:"requests"`
}

// Load reads a batch file from disk.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("batch: %s: %w", path, err)
	}
	return items, nil
}

// Parse decodes a batch document of the form:
//
//	requests:
//	  - id: landing
//	    brief: Review the hero section.
//	    artifact_name: hero.png
//	    artifact_kind: image/png
//
// Items without an id are numbered from 1.
func Parse(data []byte) ([]Item, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(f.Requests) == 0 {
		return nil, errors.New("no requests")
	}

	seen := make(map[string]bool, len(f.Requests))
	for i := range f.Requests {
		it := &f.Requests[i]
		if it.ID == "" {
			it.ID = strconv.Itoa(i + 1)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate id %q", it.ID)
		}
		seen[it.ID] = true
	}
	return f.Requests, nil
}

// Result is the outcome of one item. Exactly one of Outcome and Err is set.
type Result struct {
	ID      string            `json:"id"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty"`
	Err     error             `json:"-"`
	Error   string            `json:"error,omitempty"`
	Kind    string            `json:"kind,omitempty"`
}

// Run reviews every item with at most concurrency reviews in flight. Results
// are in item order; one item's failure does not stop the others.
func Run(ctx context.Context, reviewer Reviewer, items []Item, concurrency int, log *zap.Logger) []Result {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Result, len(items))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, it := range items {
		g.Go(func() error {
			res := Result{ID: it.ID}
			out, err := reviewer.Review(ctx, it.Request)
			if err != nil {
				res.Err = err
				res.Error = err.Error()
				if pe, ok := pipeline.AsError(err); ok {
					res.Kind = string(pe.Kind)
				}
				log.Warn("batch item failed", zap.String("id", it.ID), zap.Error(err))
			} else {
				res.Outcome = out
				log.Debug("batch item done", zap.String("id", it.ID), zap.String("request_id", out.RequestID))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
