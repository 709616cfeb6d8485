package ssl

// Build folds opts, in order, onto DefaultConfig and returns the result.
//
// Build performs no I/O and cannot fail. Options of the same kind overwrite
// each other: the last one wins. Nil options are skipped.
func Build(opts ...Option) Config {
	cfg := DefaultConfig()
	apply(&cfg, opts)
	return cfg
}

func apply(cfg *Config, opts []Option) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
}
