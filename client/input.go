package client

import (
	"fmt"
	"strings"

	"kungfuchess/engine"
)

// ParseLine 文本输入："e2 e4" 为 move，"e2" 或 "jump e2" 为原地 jump
func ParseLine(b engine.Board, line string, now int64) (engine.Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) > 0 && (fields[0] == "jump" || fields[0] == "move") {
		typ := engine.CommandType(fields[0])
		fields = fields[1:]
		if typ == engine.CmdJump && len(fields) == 1 {
			return engine.NewAlgebraicCommand(b, now, "", engine.CmdJump, fields[0])
		}
		if typ == engine.CmdMove && len(fields) == 2 {
			return engine.NewAlgebraicCommand(b, now, "", engine.CmdMove, fields[0], fields[1])
		}
		if typ == engine.CmdMove {
			return engine.Command{}, fmt.Errorf("usage: move <from> <to>")
		}
		return engine.Command{}, fmt.Errorf("usage: jump <square>")
	}
	switch len(fields) {
	case 1:
		return engine.NewAlgebraicCommand(b, now, "", engine.CmdJump, fields[0])
	case 2:
		return engine.NewAlgebraicCommand(b, now, "", engine.CmdMove, fields[0], fields[1])
	}
	return engine.Command{}, fmt.Errorf("expected \"<from> <to>\" or \"<square>\", got %q", line)
}
