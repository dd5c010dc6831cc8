package protocol

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// schemaEntries 每种消息的名字、说明与类型
var schemaEntries = []struct {
	name string
	desc string
	typ  reflect.Type
}{
	{"client_message", "Client to server action.", reflect.TypeOf(ClientMessage{})},
	{TypeAssignColor, "Sent once on connect with the seat assigned to the player.", reflect.TypeOf(AssignColor{})},
	{TypeFullState, "Complete authoritative board snapshot.", reflect.TypeOf(FullState{})},
	{TypeMoveExecuted, "Broadcast after every successfully executed move.", reflect.TypeOf(MoveExecuted{})},
	{TypeGameStarted, "Broadcast when the match starts.", reflect.TypeOf(GameStarted{})},
	{TypeGameOver, "Broadcast when a king is captured or the match is ended.", reflect.TypeOf(GameOver{})},
	{TypeMoveError, "Sent only to the player whose move was rejected.", reflect.TypeOf(MoveError{})},
	{TypePlayerDisconnected, "Broadcast to the remaining players on disconnect.", reflect.TypeOf(PlayerDisconnected{})},
	{TypeError, "Sent before closing a connection that cannot join.", reflect.TypeOf(Notice{})},
	{TypeInfo, "Informational broadcast.", reflect.TypeOf(Notice{})},
}

// Schema 按消息名返回 JSON Schema
func Schema() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	out := make(map[string]*jsonschema.Schema, len(schemaEntries))
	for _, e := range schemaEntries {
		s := reflector.ReflectFromType(e.typ)
		s.Version = ""
		s.Title = e.name
		s.Description = e.desc
		out[e.name] = s
	}
	return out
}
