package reconciler

import "time"

type Config struct {
	Interval         time.Duration `envconfig:"WARDEN_RECONCILE_INTERVAL" default:"10s"`
	Parallelism      int           `envconfig:"WARDEN_RECONCILE_PARALLELISM" default:"4"`
	ProvisionTimeout time.Duration `envconfig:"WARDEN_PROVISION_TIMEOUT" default:"10m"`
}
