/*
 * Copyright 2023 ForgeRock AS
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dispatch

import (
	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch results
const (
	ResultSuccess     = "success"
	ResultUnsupported = "unsupported"
	ResultFailure     = "failure"
)

// Metrics records dispatch outcomes. A nil *Metrics records nothing.
type Metrics struct {
	// Dispatches counts HandleCallbacks calls.
	// Labels: dispatcher, result=[success, unsupported, failure]
	Dispatches *prometheus.CounterVec

	// BatchSize tracks the number of callbacks per call.
	// Labels: dispatcher
	BatchSize *prometheus.HistogramVec
}

// NewMetrics creates the dispatch metrics and registers them with the registerer, prometheus.DefaultRegisterer if
// nil. Collectors that are already registered are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sasl_callback_dispatch_total",
				Help: "Total callback dispatches by dispatcher and result",
			},
			[]string{"dispatcher", "result"},
		),
		BatchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sasl_callback_dispatch_batch_size",
				Help:    "Number of callbacks per dispatch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 6),
			},
			[]string{"dispatcher"},
		),
	}

	if err := registerer.Register(m.Dispatches); err != nil {
		existing, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "register dispatch counter")
		}
		m.Dispatches = existing.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := registerer.Register(m.BatchSize); err != nil {
		existing, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "register batch size histogram")
		}
		m.BatchSize = existing.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m, nil
}

func (m *Metrics) observe(name string, size int, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
		var unsupported *callback.UnsupportedError
		if errors.As(err, &unsupported) {
			result = ResultUnsupported
		}
	}
	m.Dispatches.WithLabelValues(name, result).Inc()
	m.BatchSize.WithLabelValues(name).Observe(float64(size))
}

// Instrument returns a dispatcher that records every call to d under the given name.
// d is returned unchanged when m is nil.
func Instrument(name string, d Dispatcher, m *Metrics) Dispatcher {
	if m == nil {
		return d
	}
	return &instrumented{name: name, next: d, metrics: m}
}

type instrumented struct {
	name    string
	next    Dispatcher
	metrics *Metrics
}

func (i *instrumented) HandleCallbacks(callbacks []callback.Callback, username string, password []byte) error {
	err := i.next.HandleCallbacks(callbacks, username, password)
	if err != nil {
		DebugLogger.Printf("dispatcher %q failed; %v", i.name, err)
	}
	i.metrics.observe(i.name, len(callbacks), err)
	return err
}
