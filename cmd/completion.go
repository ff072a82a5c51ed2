package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/config"
)

var commandNames = []string{
	"translate", "batch", "tui", "validate", "watch", "extract", "hash",
	"tail", "config", "completion", "version", "help",
}

// completionCommand prints a shell completion script.
func completionCommand(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("completion requires a shell: bash, zsh, fish or powershell")
	}

	commands := strings.Join(commandNames, " ")
	switch strings.ToLower(args[0]) {
	case "bash":
		fmt.Printf(bashCompletion, commands)
	case "zsh":
		fmt.Printf(zshCompletion, commands)
	case "fish":
		fmt.Printf(fishCompletion, commands)
	case "powershell", "pwsh":
		fmt.Printf(powershellCompletion, strings.Join(commandNames, "', '"))
	default:
		return fmt.Errorf("unsupported shell: %s", args[0])
	}
	return nil
}

const bashCompletion = `# specsync bash completion
_specsync() {
    local cur prev
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    if [ "$COMP_CWORD" -eq 1 ]; then
        COMPREPLY=( $(compgen -W "%s" -- "$cur") )
        return
    fi
    case "$prev" in
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- "$cur") )
            return
            ;;
    esac
    COMPREPLY=( $(compgen -f -- "$cur") )
}
complete -o filenames -F _specsync specsync
`

const zshCompletion = `#compdef specsync
# specsync zsh completion
_specsync() {
    local -a commands
    commands=(%s)
    if (( CURRENT == 2 )); then
        _describe 'command' commands
    else
        _files
    fi
}
compdef _specsync specsync
`

const fishCompletion = `# specsync fish completion
complete -c specsync -f -n '__fish_use_subcommand' -a '%s'
complete -c specsync -n 'not __fish_use_subcommand' -F
`

const powershellCompletion = `# specsync PowerShell completion
Register-ArgumentCompleter -Native -CommandName specsync -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)
    @('%s') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
    }
}
`
