// Package upload publishes finished videos to YouTube via the resumable
// upload protocol. Missing credentials park the job as a pending upload
// without any network traffic; all other failures are fatal to the stage.
package upload
