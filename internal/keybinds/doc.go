/*
Package keybinds maps terminal key presses to workspace actions.

Bindings live in contexts. The TUI asks the registry for the action bound to
a key in its current context (editor, result, picker, prompt, help); when the
context has no binding the global context is consulted. Global bindings use
ctrl and alt chords because plain keys type into the query editor.

Users override defaults with keybinds.json in the config directory:

	{
	  "version": "1.0",
	  "bindings": {
	    "global": {"run": "ctrl+s,ctrl+enter"},
	    "result": {"copy_result": "y"}
	  }
	}

Listing an action in a context drops its default keys in that context. The
"gg" sequence in the result view is handled by MatchMultiKey.
*/
package keybinds
