package tools

import "github.com/quillhive/agentcore/pkg/agenterr"

// ErrUnknownTool is returned by Registry.Execute when no tool or function is
// registered under the requested name (spec §7: tool-dispatch failure).
var ErrUnknownTool = agenterr.New(agenterr.KindToolDispatch, "no tool registered with this name")
