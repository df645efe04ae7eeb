// Package job defines handler descriptors — the in-memory representation of
// a handler's identity and configuration, independent of its source file —
// along with job-name resolution, the source-path registry, and
// configuration extraction and validation.
//
// A handler is not inspected via reflection. Its file registers a Descriptor
// value at module load (or generated code registers one explicitly), and
// discovery later maps scanned file paths back to descriptors through the
// Registry.
package job
