package flow

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/utils"
)

// NewActuatorFileWriterImpl returns a new ActuatorFileWriterImpl instance
func NewActuatorFileWriterImpl(path string, log klog.Logger) *ActuatorFileWriterImpl {
	return &ActuatorFileWriterImpl{
		log:  log,
		path: path,
	}
}

// ActuatorFileWriterImpl implements Actuator interface and is used to save rules to file
type ActuatorFileWriterImpl struct {
	log  klog.Logger
	path string
}

// Actuate implements Actuator interface
// Note: rules are saved in a human-readable format as this is intended for troubleshooting.
// every rule is written as its testpmd "flow create" command, prefixed by its kind.
func (a ActuatorFileWriterImpl) Actuate(objects *generator.Objects) error {
	if objects == nil {
		return errors.New("objects cannot be nil")
	}

	exist, err := utils.PathExists(a.path)
	if err != nil {
		return errors.Wrapf(err, "failed to determine if path exist: %s", a.path)
	}

	currentBuf := bytes.NewBuffer([]byte{})
	if exist {
		data, err := os.ReadFile(a.path)
		if err != nil {
			a.log.Error(err, "failed to read file", "path", a.path)
		} else {
			currentBuf = bytes.NewBuffer(data)
		}
	}

	newBuf := bytes.Buffer{}
	_, _ = newBuf.WriteString("rules:\n")
	for _, e := range objects.Rules {
		_, _ = newBuf.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, strings.Join(e.Rule.GenCmdLineArgs(), " ")))
	}

	if bytes.Equal(currentBuf.Bytes(), newBuf.Bytes()) {
		a.log.Info("current and new rules are the same - no action needed.")
		return nil
	}

	a.log.Info("saving new rules", "path", a.path)

	file, err := os.Create(a.path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = newBuf.WriteTo(file)
	return err
}
