package environment

import "os"

// Current is the current process environment, converted to map form once at
// package initialization.
var Current map[string]string

func init() {
	Current = ToMap(os.Environ())
}

// CopyCurrent returns a fresh copy of Current, suitable for mutation before
// being handed to a subprocess.
func CopyCurrent() map[string]string {
	duplicated := make(map[string]string, len(Current))
	for k, v := range Current {
		duplicated[k] = v
	}
	return duplicated
}
