// Package archiver packages a finalized staging tree into tar+gzip and zip
// archives and produces SHA-512 sidecar checksum files.
//
// Archives are deterministic: entries are sorted by path, carry a fixed
// timestamp, and record permission bits derived from the file type rather
// than the host filesystem. Checksum logic lives here once and is shared by
// every archive that needs verification.
package archiver
