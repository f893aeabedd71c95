package main

import (
	yaml "gopkg.in/yaml.v3"
)

func init() {
	dec := func(b []byte, v any) error { return yaml.Unmarshal(b, v) }
	decoders[".yaml"] = dec
	decoders[".yml"] = dec
}
