package installer

import (
	"fmt"
	"runtime"

	"github.com/openclaw/openclaw-desktop/internal/cliexec"
)

const installScriptSh = "curl -fsSL --proto '=https' --tlsv1.2 https://openclaw.ai/install.sh | " +
	"bash -s -- --install-method npm --no-prompt --no-onboard"

const installScriptPs1 = "& ([scriptblock]::Create((iwr -useb https://openclaw.ai/install.ps1))) -NoOnboard"

// InstallFromNetwork runs the platform's one-line install script without
// interactive prompts. This is the last install strategy; its failure is
// fatal to the bootstrap.
func InstallFromNetwork(runner cliexec.Runner, emit func(string)) error {
	if runtime.GOOS == "windows" {
		emit("Installing OpenClaw using install.ps1")
		ok, output, err := runner.Run("powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", installScriptPs1)
		if err != nil {
			return err
		}
		if !ok {
			if output == "" {
				return fmt.Errorf("install.ps1 failed")
			}
			return fmt.Errorf("install.ps1 failed: %s", output)
		}
		return nil
	}

	emit("Installing OpenClaw using install.sh")
	ok, output, err := runner.Run("bash", "-lc", installScriptSh)
	if err != nil {
		return err
	}
	if !ok {
		if output == "" {
			return fmt.Errorf("install.sh failed")
		}
		return fmt.Errorf("install.sh failed: %s", output)
	}
	return nil
}
