package types

// PartitionStats summarizes one partition for monitoring surfaces.
type PartitionStats struct {
	Partition string `json:"partition"`
	Entries   int    `json:"entries"`
	Bytes     int64  `json:"bytes"`
}

// MaintenanceReport aggregates the result of an eviction+expiration pass.
type MaintenanceReport struct {
	Evicted int `json:"evicted"`
	Expired int `json:"expired"`
}

func (r MaintenanceReport) Total() int {
	return r.Evicted + r.Expired
}
