package mongostore

import (
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/caretrack/caretrack/internal/platform/store"
)

// key maps a wire field name to its document key.
func key(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}

// Filter translates the Where conditions and groups of q into a bson filter.
func Filter(q store.Query) bson.M {
	var clauses []bson.M
	for _, c := range q.Where {
		clauses = append(clauses, condition(c))
	}
	for _, g := range q.WhereGroups {
		if m := group(g); m != nil {
			clauses = append(clauses, m)
		}
	}
	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	}
	return bson.M{"$and": clauses}
}

func group(g store.Group) bson.M {
	var subs []bson.M
	for _, sg := range g.SubGroups {
		var conds []bson.M
		for _, c := range sg.Conditions {
			conds = append(conds, condition(c))
		}
		switch len(conds) {
		case 0:
		case 1:
			subs = append(subs, conds[0])
		default:
			subs = append(subs, bson.M{"$and": conds})
		}
	}
	if len(subs) == 0 {
		return nil
	}
	if g.Operator == store.Or {
		return bson.M{"$or": subs}
	}
	return bson.M{"$and": subs}
}

func condition(c store.Condition) bson.M {
	k := key(c.Field)
	switch c.Operator {
	case store.Contains:
		s, _ := store.Normalize(c.Values[0]).(string)
		return bson.M{k: primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}}
	case store.GreaterThanOrEqual:
		return bson.M{k: bson.M{"$gte": value(c.Values[0])}}
	case store.LessThanOrEqual:
		return bson.M{k: bson.M{"$lte": value(c.Values[0])}}
	}
	switch len(c.Values) {
	case 0:
		return bson.M{k: nil}
	case 1:
		return bson.M{k: value(c.Values[0])}
	}
	in := make(bson.A, len(c.Values))
	for i, v := range c.Values {
		in[i] = value(v)
	}
	return bson.M{k: bson.M{"$in": in}}
}

// value converts string operands that carry a uuid or a date to the type
// the document stores.
func value(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if len(s) == 36 {
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
	}
	if t, ok := store.ParseTime(s); ok {
		return t
	}
	return s
}

// Sort returns the bson sort document for keys.
func Sort(keys []store.SortKey) bson.D {
	d := bson.D{}
	for _, k := range keys {
		dir := 1
		if k.Direction == store.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: key(k.Field), Value: dir})
	}
	return d
}

// Projection returns nil when every field is wanted.
func Projection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	p := bson.M{"_id": 1}
	for _, f := range fields {
		p[key(f)] = 1
	}
	return p
}
