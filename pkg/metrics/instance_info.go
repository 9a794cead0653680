// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	instanceInfoMetricName = "netdiag_instance_info"
	instanceInfoHelp       = "Name and version of this netdiag monitor. Always 1."
)

// RegisterInstanceInfo registers the netdiag_instance_info info-style metric on the given registry.
func RegisterInstanceInfo(registry prometheus.Registerer, instanceName, version string) error {
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: instanceInfoMetricName,
			Help: instanceInfoHelp,
		},
		[]string{"instance_name", "version"},
	)
	info.WithLabelValues(instanceName, version).Set(1)
	return registry.Register(info)
}
