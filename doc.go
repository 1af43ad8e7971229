// Package opdk is the Occurrence Processing Development Kit. It turns
// verbatim biodiversity occurrence records into interpreted, quality-annotated
// records.
//
// Of principal importance in the kit is the interpretation pipeline. The
// root package holds the pieces every stage shares, and the sub-packages
// hold the stages themselves.
//
// 1. Source
//
//    A Source yields VerbatimRecords one at a time, from local JSON or CSV
//    files, S3 buckets, Kafka topics, NATS subjects or HTTP posts. It is not
//    the job of the Source to interpret the data in any way; it only gets the
//    raw term values out of wherever they live.
//
// 2. Interpretation
//
//    Each aspect of a record (basic, location, temporal, taxon, event,
//    metadata, multimedia, identifier) has a converter which builds an empty
//    interpreted record and threads it, together with the verbatim record,
//    through a Chain of field interpreters. An interpreter never fails for
//    bad data. Instead it leaves its field unset and records an Issue,
//    usually with a SET_TO_NULL Lineage entry, so that downstream users can
//    see what went wrong and what was done about it. Interpretation is the
//    value that carries those traces between steps.
//
// 3. Enrichment
//
//    Some interpreters consult shared services: controlled vocabularies
//    (package vocabulary), dataset attribution (package kvs) and the
//    identifier store that mints stable record UUIDs (package uniquekey).
//    These are opened once per run, shared by every worker, and closed when
//    the run ends.
//
// 4. Sink
//
//    Interpreted records are written as Avro object container files, one
//    per aspect (package avro), or as JSON lines (package json), while issue
//    counts are reported through a Statter.
package opdk
