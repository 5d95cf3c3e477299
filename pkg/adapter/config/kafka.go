// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"

	"github.com/m33pooh/plookaraid/pkg/adapter/notify/kafka"
	"github.com/m33pooh/plookaraid/pkg/core/notify"
)

// Kafka contains the domain events publisher settings. Without any
// broker, events are only logged.
type Kafka struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
}

// ValidateAndNormalize fills the default topic name.
func (k *Kafka) ValidateAndNormalize() error {
	if k.Topic == "" {
		k.Topic = "plook.events"
	}
	return nil
}

// NewPublisher connects to the brokers and returns the events
// publisher besides a function which closes it.
func (k Kafka) NewPublisher() (notify.Publisher, func() error, error) {
	if len(k.Brokers) == 0 {
		return kafka.LogPublisher{}, func() error { return nil }, nil
	}
	p, err := kafka.NewPublisher(k.Brokers, k.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to kafka: %w", err)
	}
	return p, p.Close, nil
}
