package spyglass

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	docker "github.com/fsouza/go-dockerclient"
	"github.com/go-sql-driver/mysql"
)

// DockerClientOptions specifies options when instantiating a Docker client.
// No options are currently supported, but this may change in the future.
type DockerClientOptions struct{}

// DockerClient manages lifecycle of local Docker containers for sandbox
// database servers. It wraps and hides the implementation of a specific
// Docker client implementation. (This package currently uses
// github.com/fsouza/go-dockerclient, but may later switch to the official
// Docker Golang client.)
type DockerClient struct {
	client  *docker.Client
	Options DockerClientOptions
}

// NewDockerClient is a constructor for DockerClient
func NewDockerClient(opts DockerClientOptions) (*DockerClient, error) {
	var dc *DockerClient
	client, err := docker.NewClientFromEnv()
	if err == nil {
		dc = &DockerClient{
			client:  client,
			Options: opts,
		}
	}
	return dc, err
}

// DockerizedServerOptions specifies options for creating or finding a
// sandboxed database server inside a Docker container.
type DockerizedServerOptions struct {
	Name              string
	Image             string
	RootPassword      string
	DefaultConnParams string
	Config            Config
}

// CreateServer attempts to create a Docker container with the supplied name
// (any arbitrary name, or blank to assign random) and image (such as
// "mysql:5.6", or just "mysql" to indicate latest). A session will be
// established to the server.
func (dc *DockerClient) CreateServer(opts DockerizedServerOptions) (*DockerizedServer, error) {
	if opts.Image == "" {
		return nil, errors.New("CreateServer: image cannot be empty string")
	}

	tokens := strings.SplitN(opts.Image, ":", 2)
	repository := tokens[0]
	tag := "latest"
	if len(tokens) > 1 {
		tag = tokens[1]
	}

	// Pull image from remote if missing
	if _, err := dc.client.InspectImage(opts.Image); err != nil {
		opts := docker.PullImageOptions{
			Repository: repository,
			Tag:        tag,
		}
		if err := dc.client.PullImage(opts, docker.AuthConfiguration{}); err != nil {
			return nil, err
		}
	}

	// Create and start container
	var env []string
	if opts.RootPassword == "" {
		env = append(env, "MYSQL_ALLOW_EMPTY_PASSWORD=1")
	} else {
		env = append(env, fmt.Sprintf("MYSQL_ROOT_PASSWORD=%s", opts.RootPassword))
	}
	ccopts := docker.CreateContainerOptions{
		Name: opts.Name,
		Config: &docker.Config{
			Image: opts.Image,
			Env:   env,
		},
		HostConfig: &docker.HostConfig{
			PortBindings: map[docker.Port][]docker.PortBinding{
				"3306/tcp": {
					{HostIP: "127.0.0.1"},
				},
			},
		},
	}
	ds := &DockerizedServer{
		DockerizedServerOptions: opts,
		Manager:                 dc,
	}
	var err error
	if ds.container, err = dc.client.CreateContainer(ccopts); err != nil {
		return nil, err
	} else if err = ds.Start(); err != nil {
		return ds, err
	}

	// Confirm the containerized database is reachable, and establish a session
	if err := ds.TryConnect(); err != nil {
		return ds, err
	}
	return ds, nil
}

// GetServer attempts to find an existing container with name equal to
// opts.Name. If the container is found, it will be started if not already
// running, and a session will be established. If the container does not
// exist or cannot be started or connected to, a nil *DockerizedServer and a
// non-nil error will be returned.
// If a non-blank opts.Image is supplied, and the existing container has a
// different image, the server's probed version will be examined as a
// fallback. If it also does not match the requested image, an error will be
// returned.
func (dc *DockerClient) GetServer(opts DockerizedServerOptions) (*DockerizedServer, error) {
	var err error
	ds := &DockerizedServer{
		Manager:                 dc,
		DockerizedServerOptions: opts,
	}
	if ds.container, err = dc.client.InspectContainer(opts.Name); err != nil {
		return nil, err
	}
	actualImage := ds.container.Image
	if strings.HasPrefix(actualImage, "sha256:") {
		if imageInfo, err := dc.client.InspectImage(actualImage[7:]); err == nil {
			for _, rt := range imageInfo.RepoTags {
				if rt == opts.Image || opts.Image == "" {
					actualImage = rt
					break
				}
			}
		}
	}
	if opts.Image == "" {
		ds.Image = actualImage
	}
	if err = ds.Start(); err != nil {
		return nil, err
	}
	if err = ds.TryConnect(); err != nil {
		return nil, err
	}
	// The actual image may not match the requested one if, for example, the tag
	// for version a.b previously pointed to a.b.c but now points to a.b.d. We
	// check the server's probed version as a fallback.
	if actualImage != opts.Image && !versionMatchesImage(ds.Session.Version(), opts.Image) {
		return nil, fmt.Errorf("Container %s based on unexpected image: expected %s, found %s", opts.Name, opts.Image, actualImage)
	}
	return ds, nil
}

// GetOrCreateServer attempts to fetch an existing Docker container with name
// equal to opts.Name. If it exists and its image (or probed version) matches
// opts.Image, and there are no errors starting or connecting to the server,
// it will be returned. If it exists but its image/version don't match, or it
// cannot be started or connected to, an error will be returned. If no
// container exists with this name, a new one will attempt to be created.
func (dc *DockerClient) GetOrCreateServer(opts DockerizedServerOptions) (*DockerizedServer, error) {
	ds, err := dc.GetServer(opts)
	if err == nil {
		return ds, nil
	} else if _, ok := err.(*docker.NoSuchContainer); ok {
		return dc.CreateServer(opts)
	}
	return nil, err
}

// versionMatchesImage returns true if the probed server version plausibly
// corresponds to the supplied image string, such as "mysql:5.7" or
// "mariadb:10.3". Patch-level differences are ignored, since image tags
// routinely move between patch releases.
func versionMatchesImage(version ServerVersion, image string) bool {
	tokens := strings.SplitN(image, ":", 2)
	if len(tokens) < 2 {
		return false
	}
	repository := strings.ToLower(tokens[0])
	if strings.Contains(repository, "mariadb") != version.MariaDB {
		return false
	}
	if strings.Contains(repository, "percona") != version.Percona {
		return false
	}
	want := ParseVersion(tokens[1])
	return version.Major() == want[0] && version.Minor() == want[1]
}

// DockerizedServer is a database server running in a local Docker container.
type DockerizedServer struct {
	*Session
	DockerizedServerOptions
	Manager   *DockerClient
	container *docker.Container
}

// Start starts the corresponding containerized database server. If it is not
// already running, an error will be returned if it cannot be started. If it
// is already running, nil will be returned.
func (ds *DockerizedServer) Start() error {
	err := ds.Manager.client.StartContainer(ds.container.ID, nil)
	if _, ok := err.(*docker.ContainerAlreadyRunning); err == nil || ok {
		ds.container, err = ds.Manager.client.InspectContainer(ds.container.ID)
	}
	return err
}

// Stop halts the corresponding containerized database server, but does not
// destroy the container. If the container was not already running, nil will
// be returned.
func (ds *DockerizedServer) Stop() error {
	err := ds.Manager.client.StopContainer(ds.container.ID, 10)
	if _, ok := err.(*docker.ContainerNotRunning); !ok && err != nil {
		return err
	}
	return nil
}

// Destroy stops and deletes the corresponding containerized database server.
func (ds *DockerizedServer) Destroy() error {
	rcopts := docker.RemoveContainerOptions{
		ID:            ds.container.ID,
		Force:         true,
		RemoveVolumes: true,
	}
	err := ds.Manager.client.RemoveContainer(rcopts)
	if _, ok := err.(*docker.NoSuchContainer); ok {
		err = nil
	}
	return err
}

// TryConnect establishes a session to the containerized database server,
// testing connectivity with retries since the server takes a while to accept
// connections after the container starts. It returns an error if a session
// cannot be established within 30 seconds.
func (ds *DockerizedServer) TryConnect() (err error) {
	for attempts := 0; attempts < 120; attempts++ {
		if ds.Session, err = Connect(ds.DSN(), ds.Config); err == nil {
			return nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return err
}

// Port returns the actual port number on localhost that maps to the container's
// internal port 3306.
func (ds *DockerizedServer) Port() int {
	portAndProto := docker.Port("3306/tcp")
	portBindings, ok := ds.container.NetworkSettings.Ports[portAndProto]
	if !ok || len(portBindings) == 0 {
		return 0
	}
	result, _ := strconv.Atoi(portBindings[0].HostPort)
	return result
}

// DSN returns a github.com/go-sql-driver/mysql formatted DSN corresponding
// to the containerized database server.
func (ds *DockerizedServer) DSN() string {
	var pass string
	if ds.RootPassword != "" {
		pass = fmt.Sprintf(":%s", ds.RootPassword)
	}
	return fmt.Sprintf("root%s@tcp(127.0.0.1:%d)/?%s", pass, ds.Port(), ds.DefaultConnParams)
}

func (ds *DockerizedServer) String() string {
	return fmt.Sprintf("DockerizedServer:%d", ds.Port())
}

var systemDatabases = map[string]bool{
	"information_schema": true,
	"performance_schema": true,
	"mysql":              true,
	"sys":                true,
}

// NukeData drops all non-system databases in the containerized server,
// making it useful as a per-test cleanup method in implementations of
// IntegrationTestSuite.BeforeTest. Cache entries describing the dropped
// databases are removed as well.
func (ds *DockerizedServer) NukeData() error {
	names, err := ds.Session.DatabaseNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if systemDatabases[strings.ToLower(name)] {
			continue
		}
		if _, err := ds.Session.Exec(fmt.Sprintf("DROP DATABASE %s", EscapeIdentifier(name))); err != nil {
			return err
		}
		ds.Session.Cache().Remove(DatabaseCollationCacheKey(name))
	}
	ds.Session.Cache().Remove(CacheKeyDatabaseNames)
	return nil
}

// SourceSQL reads the specified file and executes it against the
// containerized database server. The file should contain one or more valid
// SQL instructions, typically a mix of DML and/or DDL statements. It is
// useful as a per-test setup method in implementations of
// IntegrationTestSuite.BeforeTest. Since the sourced statements typically
// create databases, the session's cached database name list is invalidated.
func (ds *DockerizedServer) SourceSQL(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("SourceSQL %s: Unable to open setup file %s: %s", ds, filePath, err)
	}
	cmd := []string{"mysql", "-tvvv", "-u", "root"}
	if ds.RootPassword != "" {
		cmd = append(cmd, fmt.Sprintf("-p%s", ds.RootPassword))
	}
	ceopts := docker.CreateExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  true,
		Cmd:          cmd,
		Container:    ds.container.ID,
	}
	exec, err := ds.Manager.client.CreateExec(ceopts)
	if err != nil {
		return "", err
	}
	var stdout, stderr bytes.Buffer
	seopts := docker.StartExecOptions{
		OutputStream: &stdout,
		ErrorStream:  &stderr,
		InputStream:  f,
	}
	if err = ds.Manager.client.StartExec(exec.ID, seopts); err != nil {
		return "", err
	}
	stdoutStr := stdout.String()
	stderrStr := strings.Replace(stderr.String(), "Warning: Using a password on the command line interface can be insecure.\n", "", 1)
	if strings.Contains(stderrStr, "ERROR") {
		return stdoutStr, fmt.Errorf("SourceSQL %s: Error sourcing file %s: %s", ds, filePath, stderrStr)
	}
	ds.Session.Cache().Remove(CacheKeyDatabaseNames)
	return stdoutStr, nil
}

type filteredLogger struct {
	logger *log.Logger
}

func (fl filteredLogger) Print(v ...interface{}) {
	if len(v) > 0 {
		if err, ok := v[0].(error); ok && err.Error() == "unexpected EOF" {
			return
		}
	}
	fl.logger.Print(v...)
}

// UseFilteredDriverLogger overrides the mysql driver's logger to avoid excessive
// messages. This suppresses the driver's "unexpected EOF" output, which occurs
// when an initial connection is refused or a connection drops early. This
// excessive logging can occur whenever DockerClient.CreateServer() or
// DockerClient.GetServer() is waiting for the server to finish starting.
func UseFilteredDriverLogger() {
	fl := filteredLogger{
		logger: log.New(os.Stderr, "[mysql] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
	mysql.SetLogger(fl)
}
