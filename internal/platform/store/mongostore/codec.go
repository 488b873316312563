package mongostore

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var tUUID = reflect.TypeOf(uuid.UUID{})

// Registry returns a bson registry that stores uuid.UUID as binary
// subtype 4 instead of a 16-element array.
func Registry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tUUID, bsoncodec.ValueEncoderFunc(encodeUUID))
	reg.RegisterTypeDecoder(tUUID, bsoncodec.ValueDecoderFunc(decodeUUID))
	return reg
}

func encodeUUID(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tUUID {
		return bsoncodec.ValueEncoderError{Name: "encodeUUID", Types: []reflect.Type{tUUID}, Received: val}
	}
	id := val.Interface().(uuid.UUID)
	return vw.WriteBinaryWithSubtype(id[:], bsontype.BinaryUUID)
}

func decodeUUID(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tUUID {
		return bsoncodec.ValueDecoderError{Name: "decodeUUID", Types: []reflect.Type{tUUID}, Received: val}
	}
	switch vr.Type() {
	case bsontype.Binary:
		data, subtype, err := vr.ReadBinary()
		if err != nil {
			return err
		}
		if subtype != bsontype.BinaryUUID && subtype != bsontype.BinaryUUIDOld {
			return fmt.Errorf("decode uuid: unexpected binary subtype %#x", subtype)
		}
		id, err := uuid.FromBytes(data)
		if err != nil {
			return fmt.Errorf("decode uuid: %w", err)
		}
		val.Set(reflect.ValueOf(id))
		return nil
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("decode uuid: %w", err)
		}
		val.Set(reflect.ValueOf(id))
		return nil
	case bsontype.Null:
		val.Set(reflect.Zero(tUUID))
		return vr.ReadNull()
	}
	return fmt.Errorf("decode uuid: cannot decode %v", vr.Type())
}
