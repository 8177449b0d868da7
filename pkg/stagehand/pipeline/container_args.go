package pipeline

// Raw argument keys understood by the container backend.
const (
	ArgImage = "Img"
	ArgUser  = "User"
)

// Link is a container started next to the phase container.
type Link struct {
	image        string
	alias        string
	portMappings []string
}

// Image returns the image the link runs.
func (l *Link) Image() string {
	return l.image
}

// SetImage replaces the linked image. An empty image is ignored.
func (l *Link) SetImage(image string) *Link {
	if image != "" {
		l.image = image
	}
	return l
}

// As sets the host name under which the phase container reaches the link.
// An empty alias is ignored.
func (l *Link) As(alias string) *Link {
	if alias != "" {
		l.alias = alias
	}
	return l
}

// Alias returns the link alias, or "" when none was set.
func (l *Link) Alias() string {
	return l.alias
}

// MapPort appends a port mapping such as "5432:5432". Empty specs are ignored.
func (l *Link) MapPort(spec string) *Link {
	if spec != "" {
		l.portMappings = append(l.portMappings, spec)
	}
	return l
}

// PortMappings returns the port mappings in the order they were added.
func (l *Link) PortMappings() []string {
	return append([]string(nil), l.portMappings...)
}

// Links is the ordered set of containers linked to a phase.
type Links struct {
	links []*Link
}

// Add creates a link to image and returns it for further configuration.
func (ls *Links) Add(image string) *Link {
	l := &Link{image: image}
	ls.links = append(ls.links, l)
	return l
}

// All returns the links in the order they were added.
func (ls *Links) All() []*Link {
	return append([]*Link(nil), ls.links...)
}

// Len returns the number of links.
func (ls *Links) Len() int {
	return len(ls.links)
}

// ContainerArgs are the launch arguments of a phase container.
type ContainerArgs struct {
	rawArgs map[string]string
	links   *Links
}

// NewContainerArgs returns empty container arguments.
func NewContainerArgs() *ContainerArgs {
	return &ContainerArgs{
		rawArgs: make(map[string]string),
		links:   &Links{},
	}
}

// Image returns the container image.
func (a *ContainerArgs) Image() string {
	return a.rawArgs[ArgImage]
}

// SetImage sets the container image. An empty image is ignored.
func (a *ContainerArgs) SetImage(image string) *ContainerArgs {
	if image != "" {
		a.rawArgs[ArgImage] = image
	}
	return a
}

// User returns the user the container runs as.
func (a *ContainerArgs) User() string {
	return a.rawArgs[ArgUser]
}

// SetUser sets the user the container runs as. An empty user is ignored.
func (a *ContainerArgs) SetUser(user string) *ContainerArgs {
	if user != "" {
		a.rawArgs[ArgUser] = user
	}
	return a
}

// RawArgs returns a copy of every raw argument, image and user included.
func (a *ContainerArgs) RawArgs() map[string]string {
	out := make(map[string]string, len(a.rawArgs))
	for k, v := range a.rawArgs {
		out[k] = v
	}
	return out
}

// MergeRawArgs merges args into the raw arguments; args wins on conflicts.
func (a *ContainerArgs) MergeRawArgs(args map[string]string) *ContainerArgs {
	for k, v := range args {
		a.rawArgs[k] = v
	}
	return a
}

// Links returns the linked containers.
func (a *ContainerArgs) Links() *Links {
	return a.links
}
