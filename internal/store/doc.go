// Package store loads and saves the migration-project document and keeps it
// canonical.
//
// Every load and every save runs the normalization pipeline:
//  1. Reserved groups (SEM_GRUPO, IGNORADOS) exist once; GROUP_0, id-less
//     groups and stray top-level objects fold into SEM_GRUPO
//  2. Ignored items move to IGNORADOS, the rest leave it
//  3. Manual groups are renumbered 1..N by stored sequence
//  4. Legacy saved_query.sql is promoted to object_extraction_query
//  5. otm_related_tables is derived from the extraction SQL; otm_subtables
//     is kept a subset of it
//  6. technical_content is coerced to {type, content}
//  7. domain/domainName are unified and filled where unambiguous
//  8. Subtable candidates waiting in SEM_GRUPO move under their principal
//     and inherit from it
//  9. Missing (table, domain) coverage gets AUTO placeholders
//  10. Auto items refresh deployment_type from the eligibility policy
//  11. Duplicate autos in SEM_GRUPO are dropped
//  12. Legacy "<TABLE> (AUTO)" items go once per-domain coverage exists
//  13. Items get stable migration_item_id values
//  14. active_group_id points at an existing group
//
// Load rewrites the file only when normalization changed its canonical
// form. Save also validates and writes with rename, so the file on disk is
// always a complete, normalized document.
package store
