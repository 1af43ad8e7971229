// Package avro writes interpreted records as Avro object container files,
// one file per aspect. Schemas are derived from the records field tables.
package avro

import (
	"encoding/json"

	"github.com/biocache/opdk/records"
	"github.com/pkg/errors"
)

// Namespace of every generated schema.
const Namespace = "org.biocache.opdk"

const (
	conceptName = "VocabularyConcept"
	mediaName   = "Multimedia"
	issuesName  = "IssueRecord"
	issueName   = "Issue"
	lineageName = "Lineage"
)

func fullName(name string) string { return Namespace + "." + name }

// schemaBuilder defines each named type once; later references use the
// name.
type schemaBuilder struct {
	defined map[string]bool
}

func (b *schemaBuilder) named(name string, def func() map[string]interface{}) interface{} {
	if b.defined[name] {
		return fullName(name)
	}
	b.defined[name] = true
	return def()
}

func record(name string, fields ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":      "record",
		"name":      name,
		"namespace": Namespace,
		"fields":    fields,
	}
}

func field(name string, typ interface{}) map[string]interface{} {
	return map[string]interface{}{"name": name, "type": typ}
}

func nullable(name string, typ interface{}) map[string]interface{} {
	return map[string]interface{}{"name": name, "type": []interface{}{"null", typ}, "default": nil}
}

func array(items interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": items}
}

func (b *schemaBuilder) typeOf(k records.Kind) (interface{}, error) {
	switch k {
	case records.String:
		return "string", nil
	case records.Int:
		return "int", nil
	case records.Long:
		return "long", nil
	case records.Double:
		return "double", nil
	case records.Bool:
		return "boolean", nil
	case records.Strings:
		return array("string"), nil
	case records.Concept:
		return b.named(conceptName, func() map[string]interface{} {
			return record(conceptName,
				field("concept", "string"),
				field("lineage", array("string")))
		}), nil
	case records.MediaList:
		return array(b.named(mediaName, func() map[string]interface{} {
			return record(mediaName,
				field("identifier", "string"),
				nullable("type", "string"),
				nullable("format", "string"))
		})), nil
	}
	return nil, errors.Errorf("no avro type for field kind %d", k)
}

func (b *schemaBuilder) issues() interface{} {
	return b.named(issuesName, func() map[string]interface{} {
		return record(issuesName,
			field("issueList", array(b.named(issueName, func() map[string]interface{} {
				return record(issueName, field("issueType", "string"), field("remark", "string"))
			}))),
			field("lineage", array(b.named(lineageName, func() map[string]interface{} {
				return record(lineageName, field("lineageType", "string"), field("remark", "string"))
			}))))
	})
}

// Schema returns the Avro schema of the records of aspect a.
func Schema(a records.Aspect) (string, error) {
	b := &schemaBuilder{defined: make(map[string]bool)}
	fs := records.Fields(a)
	if len(fs) == 0 {
		return "", errors.Errorf("no fields for aspect %v", a)
	}
	fields := make([]map[string]interface{}, 0, len(fs)+1)
	for _, f := range fs {
		typ, err := b.typeOf(f.Kind)
		if err != nil {
			return "", errors.Wrapf(err, "field %s", f.Name)
		}
		if f.Required {
			fields = append(fields, field(f.Name, typ))
		} else {
			fields = append(fields, nullable(f.Name, typ))
		}
	}
	fields = append(fields, field("issues", b.issues()))
	data, err := json.Marshal(record(records.SchemaName(a), fields...))
	if err != nil {
		return "", errors.Wrap(err, "encoding schema")
	}
	return string(data), nil
}
