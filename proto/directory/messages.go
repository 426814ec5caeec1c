package directory

import (
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldPath    = "path"
	FieldName    = "name"
	FieldLabel   = "label"
	FieldAddress = "address"
	FieldFound   = "found"
)

func NewRegisterZoneRequest(path, address string) *structpb.Struct {
	return stringStruct(FieldPath, path, FieldAddress, address)
}

func NewRegisterAddressRequest(name, address string) *structpb.Struct {
	return stringStruct(FieldName, name, FieldAddress, address)
}

func NewLookupRequest(name string) *structpb.Struct {
	return stringStruct(FieldName, name)
}

func NewResolveZoneRequest(label string) *structpb.Struct {
	return stringStruct(FieldLabel, label)
}

// NewAddressResponse is the reply of Lookup and ResolveZone.
func NewAddressResponse(address string, found bool) *structpb.Struct {
	s := stringStruct(FieldAddress, address)
	s.Fields[FieldFound] = structpb.NewBoolValue(found)
	return s
}

// String returns the string field key of s, or "" when it is missing or not a string.
func String(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func Bool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func stringStruct(kv ...string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = structpb.NewStringValue(kv[i+1])
	}
	return &structpb.Struct{Fields: fields}
}
