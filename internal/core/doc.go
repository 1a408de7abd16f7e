// Package core holds the accounts payable domain: the CSV ingestion pipeline,
// record validation, and the ledger service that queries and mutates records
// through a Repository.
//
// It has no HTTP or storage code and is used unchanged by the web server, the
// payablesctl CLI and tests.
//
// # Ingestion
//
// [Ingest] reads an uploaded file once, front to back:
//
//  1. Empty uploads fail with [ErrEmptyFile], non-CSV uploads with [ErrUnsupportedFormat]
//  2. The header is matched case-insensitively by [NormalizeHeader]; missing
//     required columns fail with [ErrMalformedFile]
//  3. Each data row goes through [ParseRow]; rows that fail are recorded in
//     [IngestResult.Skipped] and never abort the call
//  4. A read error on the stream fails with [ErrIOFailure]
//
// # Ledger Service
//
// [Service] validates single-record writes with [Validate], dispatches
// [Service.Query] onto the matching Repository finder and sums due amounts in
// [Service.TotalPaid]. [Service.ImportCSV] chains ingestion and the bulk save
// under an [ImportLimiter]. Bulk saves skip validation unless
// [Options.ValidateOnImport] is set.
//
// # Error Handling
//
// Every failure kind has a sentinel matched with errors.Is, and [MapError]
// turns any error into a [UserMessage] with a support code.
package core
