// Package kubernetes provides a depository.Source for Kubernetes ConfigMaps
// and Secrets using the Watch API. Every data key becomes a path, so one
// resource reads as one subtree.
package kubernetes

import (
	"context"
	"fmt"

	"github.com/zoobzio/depository"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// ResourceType specifies the type of Kubernetes resource to watch.
type ResourceType int

const (
	// ConfigMap watches a ConfigMap resource.
	ConfigMap ResourceType = iota
	// Secret watches a Secret resource.
	Secret
)

// Source watches a Kubernetes ConfigMap or Secret for changes.
type Source struct {
	client       kubernetes.Interface
	namespace    string
	name         string
	separator    string
	resourceType ResourceType
}

// Option configures a Source.
type Option func(*Source)

// WithResourceType sets the resource type to watch.
// Defaults to ConfigMap.
func WithResourceType(rt ResourceType) Option {
	return func(s *Source) {
		s.resourceType = rt
	}
}

// WithSeparator sets the separator used to split data keys into paths.
// Defaults to ".".
func WithSeparator(sep string) Option {
	return func(s *Source) {
		s.separator = sep
	}
}

// New creates a Source for the named resource.
func New(client kubernetes.Interface, namespace, name string, opts ...Option) *Source {
	s := &Source{
		client:       client,
		namespace:    namespace,
		name:         name,
		separator:    ".",
		resourceType: ConfigMap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch emits the resource's data as a JSON document immediately, then again
// on every modification. Deleting the resource emits {}. The watch is
// re-established after errors until ctx is cancelled.
func (s *Source) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		for {
			if err := s.watchLoop(ctx, out); err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			return
		}
	}()

	return out, nil
}

func (s *Source) watchLoop(ctx context.Context, out chan<- []byte) error {
	data, resourceVersion, err := s.get(ctx)
	if err != nil {
		return err
	}
	if err := s.emit(ctx, out, data); err != nil {
		return err
	}

	opts := metav1.ListOptions{
		FieldSelector:   fmt.Sprintf("metadata.name=%s", s.name),
		ResourceVersion: resourceVersion,
		Watch:           true,
	}

	var watcher watch.Interface
	if s.resourceType == ConfigMap {
		watcher, err = s.client.CoreV1().ConfigMaps(s.namespace).Watch(ctx, opts)
	} else {
		watcher, err = s.client.CoreV1().Secrets(s.namespace).Watch(ctx, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return fmt.Errorf("watch channel closed")
			}

			switch event.Type {
			case watch.Error:
				return fmt.Errorf("watch error")
			case watch.Deleted:
				data = map[string][]byte{}
			case watch.Added, watch.Modified:
				var ok bool
				if data, ok = s.extract(event.Object); !ok {
					continue
				}
			default:
				continue
			}

			if err := s.emit(ctx, out, data); err != nil {
				return err
			}
		}
	}
}

func (s *Source) emit(ctx context.Context, out chan<- []byte, data map[string][]byte) error {
	doc, err := depository.MarshalFlat(data, s.separator)
	if err != nil {
		return fmt.Errorf("failed to build tree from %s/%s: %w", s.namespace, s.name, err)
	}
	select {
	case out <- doc:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Source) get(ctx context.Context) (map[string][]byte, string, error) {
	if s.resourceType == ConfigMap {
		cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
		if err != nil {
			return nil, "", err
		}
		return configMapData(cm), cm.ResourceVersion, nil
	}

	secret, err := s.client.CoreV1().Secrets(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if err != nil {
		return nil, "", err
	}
	return secret.Data, secret.ResourceVersion, nil
}

func (s *Source) extract(obj any) (map[string][]byte, bool) {
	if s.resourceType == ConfigMap {
		if cm, ok := obj.(*corev1.ConfigMap); ok {
			return configMapData(cm), true
		}
		return nil, false
	}
	if secret, ok := obj.(*corev1.Secret); ok {
		return secret.Data, true
	}
	return nil, false
}

func configMapData(cm *corev1.ConfigMap) map[string][]byte {
	data := make(map[string][]byte, len(cm.Data)+len(cm.BinaryData))
	for k, v := range cm.BinaryData {
		data[k] = v
	}
	for k, v := range cm.Data {
		data[k] = []byte(v)
	}
	return data
}

var _ depository.Source = (*Source)(nil)
