package app

import (
	"fmt"
	"sync"

	"github.com/ggonzalez94/casper-cli/internal/schema"
	"github.com/spf13/cobra"
)

// supersede makes cmd print a deprecation banner naming replacement the first time
// it runs, then behave exactly as before. With --envelope the banner is only reported
// in the envelope warnings.
func (s *runtimeState) supersede(cmd *cobra.Command, replacement string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[schema.DeprecatedAnnotation] = replacement
	cmd.Short += fmt.Sprintf(" (deprecated: use %s)", replacement)

	var once sync.Once
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		once.Do(func() {
			banner := fmt.Sprintf("%s is deprecated and will be removed in a future release; use %s instead", c.Name(), replacement)
			if !s.settings.Envelope {
				_, _ = fmt.Fprintln(s.runner.stdout, banner)
			}
			s.lastWarnings = append(s.lastWarnings, banner)
		})
		return run(c, args)
	}
	return cmd
}
