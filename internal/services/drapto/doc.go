// Package drapto binds the Drapto Go library as an AV1 encoder engine.
//
// Library runs an encode in-process and translates Drapto's Reporter
// callbacks into ProgressUpdate values. Drapto always writes Matroska output
// named after the input stem inside the requested directory.
package drapto
