// Package tasks holds batch jobs that run outside the HTTP API.
//
// # Catalog Import
//
// [CatalogImporter] seeds the piece catalog from a composer/work dump (the OpenOpus
// format). A dump is loaded with [FetchCatalog], [ReadCatalog] or [DecodeCatalog];
// [CatalogImporter.Import] then:
//
//  1. keeps popular composers only, unless [ImportOptions.All] is set
//  2. drops blank and repeated (title, composer) pairs, including pairs already stored
//  3. inserts the rest one by one, counting uniqueness conflicts as duplicates
//
// The importer only needs [PieceStore], the Insert/Select contract of the piece repository.
//
// # Progress Reporting
//
// Import reports through a [ProgressUpdate] channel. Updates use select with default
// so a slow reader never blocks the import; a nil channel disables reporting.
package tasks
