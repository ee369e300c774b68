// Package corpus reads talk records from the TED dataset CSV.
//
// The file must start with a header row. Columns are located by name, so
// extra columns and any column order are accepted. Rows without a record id
// are skipped.
package corpus
