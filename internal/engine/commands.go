package engine

import (
	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/scope"
)

// BuiltinCommands returns the commands every engine provides
func BuiltinCommands() []*command.Entry {
	return []*command.Entry{
		{
			Name:        "say",
			Description: "Send a message",
			Grammar:     sayGrammar,
			Handler:     executeSay,
		},
		{
			Name:        "if",
			Description: "Run the following lines only when a test passes",
			Grammar:     ifGrammar,
			Handler:     executeIf,
			OpensBlock:  true,
		},
		{
			Name:        "for",
			Description: "Repeat the lines up to endfor once per element",
			Grammar:     forGrammar,
			Handler:     executeFor,
			OpensBlock:  true,
		},
		{
			Name:        "set_variable",
			Description: "Set a script, session or global variable",
			Grammar:     setVariableGrammar,
			Handler:     executeSetVariable,
		},
		{
			Name:          "change_roles",
			Description:   "Add or remove roles of a member",
			Grammar:       changeRolesGrammar,
			MinPermission: scope.Script,
			Handler:       executeChangeRoles,
		},
		{
			Name:          "set_command_prefix",
			Description:   "Set the prefix used to write commands",
			Grammar:       setCommandPrefixGrammar,
			MinPermission: scope.Admin,
			Handler:       executeSetCommandPrefix,
		},
		{
			Name:        "script",
			Description: "Run the lines up to endscript as a nested script",
			Grammar:     scriptGrammar,
			Handler:     executeScript,
			TakesBody:   true,
		},
		{
			Name:          "for_members",
			Description:   "Run a command once for every member of the server",
			MinPermission: scope.Owner,
			Handler:       executeForMembers,
		},
		{
			Name:        "exit",
			Description: "Stop the script",
			Grammar:     &command.Grammar{},
			Handler:     executeExit,
		},
		{
			Name:        "delete_message",
			Description: "Delete the message that triggered the script",
			Grammar:     &command.Grammar{},
			Handler:     executeDeleteMessage,
		},
	}
}

// RegisterBuiltins adds the built-in commands to reg. Names already
// registered are kept, so hosts can override any built-in.
func RegisterBuiltins(reg *command.Registry) error {
	for _, entry := range BuiltinCommands() {
		if reg.Exists(entry.Name) {
			log.Debugf("keeping host override of built-in command %s", entry.Name)
			continue
		}
		if err := reg.Register(entry); err != nil {
			return err
		}
	}
	return nil
}
