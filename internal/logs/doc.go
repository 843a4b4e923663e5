// Package logs reads back the JSON log files a run writes.
//
// Last returns the trailing records of combined.log or error.log with bounded
// memory, and Follow polls for appended records until its context ends. A
// Matcher narrows either to one run or to a minimum level.
package logs
