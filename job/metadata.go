package job

// Get returns the metadata value associated with key, and whether it was
// present. Metadata is optional, caller-supplied tagging (set via
// repeated --meta k=v flags on enqueue) carried alongside a Job purely
// for operator bookkeeping; the core never reads it.
func (j *Job) Get(key string) (string, bool) {
	v, ok := j.Metadata[key]
	return v, ok
}

// Set stores key=value in the job's metadata, initializing the map on
// first use.
func (j *Job) Set(key, value string) {
	if j.Metadata == nil {
		j.Metadata = make(map[string]string)
	}
	j.Metadata[key] = value
}
