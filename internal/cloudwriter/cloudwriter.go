// Package cloudwriter archives generation run reports to object storage.
package cloudwriter

// CloudWriter buffers one report object; Close uploads it.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}
