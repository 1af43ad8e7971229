package avro

import (
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
	liavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"
)

// unionName is the name goavro expects when wrapping a value of the kind in
// a ["null", T] union.
func unionName(k records.Kind) string {
	switch k {
	case records.String:
		return "string"
	case records.Int:
		return "int"
	case records.Long:
		return "long"
	case records.Double:
		return "double"
	case records.Bool:
		return "boolean"
	case records.Concept:
		return fullName(conceptName)
	default:
		return "array"
	}
}

func anySlice(ss []string) []interface{} {
	ret := make([]interface{}, len(ss))
	for i, s := range ss {
		ret[i] = s
	}
	return ret
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return liavro.Union("string", s)
}

func nativeValue(k records.Kind, v interface{}) (interface{}, error) {
	switch k {
	case records.String, records.Int, records.Long, records.Double, records.Bool:
		return v, nil
	case records.Strings:
		ss, ok := v.([]string)
		if !ok {
			return nil, errors.Errorf("expected []string, got %T", v)
		}
		return anySlice(ss), nil
	case records.Concept:
		c, ok := v.(*opdk.VocabularyConcept)
		if !ok || c == nil {
			return nil, errors.Errorf("expected *VocabularyConcept, got %T", v)
		}
		return map[string]interface{}{"concept": c.Concept, "lineage": anySlice(c.Lineage)}, nil
	case records.MediaList:
		items, ok := v.([]records.MediaItem)
		if !ok {
			return nil, errors.Errorf("expected []MediaItem, got %T", v)
		}
		ret := make([]interface{}, len(items))
		for i, it := range items {
			ret[i] = map[string]interface{}{
				"identifier": it.Identifier,
				"type":       optionalString(it.Type),
				"format":     optionalString(it.Format),
			}
		}
		return ret, nil
	}
	return nil, errors.Errorf("unknown field kind %d", k)
}

func nativeIssues(l *opdk.IssueList) map[string]interface{} {
	issues := l.Issues()
	is := make([]interface{}, len(issues))
	for i, issue := range issues {
		is[i] = map[string]interface{}{"issueType": string(issue.Type), "remark": issue.Remark}
	}
	lineages := l.Lineages()
	ls := make([]interface{}, len(lineages))
	for i, lin := range lineages {
		ls[i] = map[string]interface{}{"lineageType": string(lin.Type), "remark": lin.Remark}
	}
	return map[string]interface{}{"issueList": is, "lineage": ls}
}

// Native converts r to the goavro native form of its aspect's schema.
func Native(r records.Record) (map[string]interface{}, error) {
	fs := records.Fields(r.Aspect())
	ret := make(map[string]interface{}, len(fs)+1)
	for _, f := range fs {
		v, set := f.Value(r)
		if !set && !f.Required {
			ret[f.Name] = nil
			continue
		}
		nv, err := nativeValue(f.Kind, v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		if f.Required {
			ret[f.Name] = nv
		} else {
			ret[f.Name] = liavro.Union(unionName(f.Kind), nv)
		}
	}
	ret["issues"] = nativeIssues(r.IssueList())
	return ret, nil
}
