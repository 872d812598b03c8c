package quota

// Default returns the catalog of tiers offered by the platform.
func Default() *Catalog {
	c, err := NewCatalog(map[ResourceKind][]Tier{
		CPU: {
			{Key: "CPU_REQUEST_0_5_LIMIT_1_5", Label: "0.5 CPU Request, 1.5 CPU Limit"},
			{Key: "CPU_REQUEST_1_LIMIT_2", Label: "1 CPU Request, 2 CPU Limit"},
			{Key: "CPU_REQUEST_2_LIMIT_4", Label: "2 CPU Request, 4 CPU Limit"},
			{Key: "CPU_REQUEST_4_LIMIT_8", Label: "4 CPU Request, 8 CPU Limit"},
			{Key: "CPU_REQUEST_8_LIMIT_16", Label: "8 CPU Request, 16 CPU Limit"},
			{Key: "CPU_REQUEST_16_LIMIT_32", Label: "16 CPU Request, 32 CPU Limit"},
			{Key: "CPU_REQUEST_32_LIMIT_64", Label: "32 CPU Request, 64 CPU Limit"},
		},
		Memory: {
			{Key: "MEMORY_REQUEST_2_LIMIT_4", Label: "2 GB Request, 4 GB Limit"},
			{Key: "MEMORY_REQUEST_4_LIMIT_8", Label: "4 GB Request, 8 GB Limit"},
			{Key: "MEMORY_REQUEST_8_LIMIT_16", Label: "8 GB Request, 16 GB Limit"},
			{Key: "MEMORY_REQUEST_16_LIMIT_32", Label: "16 GB Request, 32 GB Limit"},
			{Key: "MEMORY_REQUEST_32_LIMIT_64", Label: "32 GB Request, 64 GB Limit"},
			{Key: "MEMORY_REQUEST_64_LIMIT_128", Label: "64 GB Request, 128 GB Limit"},
		},
		Storage: {
			{Key: "STORAGE_1", Label: "1 GB"},
			{Key: "STORAGE_2", Label: "2 GB"},
			{Key: "STORAGE_4", Label: "4 GB"},
			{Key: "STORAGE_16", Label: "16 GB"},
			{Key: "STORAGE_32", Label: "32 GB"},
			{Key: "STORAGE_64", Label: "64 GB"},
			{Key: "STORAGE_128", Label: "128 GB"},
			{Key: "STORAGE_256", Label: "256 GB"},
			{Key: "STORAGE_512", Label: "512 GB"},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
