// smoke_test walks a running server through registration, approval, booking
// and completion, printing every response.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type client struct {
	base string
	http *http.Client
}

func (c *client) call(method, path, token string, body interface{}, want int) map[string]interface{} {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	fmt.Printf("%s %s -> %d\n%s\n", method, path, resp.StatusCode, raw)
	fmt.Println("--------------------------------------------------")
	if resp.StatusCode != want {
		log.Fatalf("%s %s: expected %d, got %d", method, path, want, resp.StatusCode)
	}

	out := map[string]interface{}{}
	var list []interface{}
	if json.Unmarshal(raw, &out) != nil && json.Unmarshal(raw, &list) == nil {
		out["items"] = list
	}
	return out
}

func (c *client) register(first, email, role string) string {
	resp := c.call(http.MethodPost, "/api/user/register", "", map[string]string{
		"firstname": first, "lastname": "Smoke", "email": email, "password": "secret1", "role": role,
	}, http.StatusCreated)
	user, _ := resp["user"].(map[string]interface{})
	id, _ := user["_id"].(string)
	return id
}

func (c *client) login(email, password string) string {
	resp := c.call(http.MethodPost, "/api/user/login", "", map[string]string{"email": email, "password": password}, http.StatusOK)
	token, _ := resp["token"].(string)
	return token
}

func main() {
	base := flag.String("base", "http://localhost:5020", "server base URL")
	adminEmail := flag.String("admin-email", "", "email of an existing admin")
	adminPassword := flag.String("admin-password", "", "password of that admin")
	flag.Parse()
	if *adminEmail == "" || *adminPassword == "" {
		log.Fatal("-admin-email and -admin-password are required; create one with `create-admin`")
	}

	c := &client{base: *base, http: &http.Client{Timeout: 15 * time.Second}}
	c.call(http.MethodGet, "/health", "", nil, http.StatusOK)

	suffix := uuid.New().String()[:8]
	patientEmail := fmt.Sprintf("patient-%s@example.com", suffix)
	doctorEmail := fmt.Sprintf("doctor-%s@example.com", suffix)

	c.register("Pat", patientEmail, "Patient")
	doctorID := c.register("Doc", doctorEmail, "Doctor")
	patient := c.login(patientEmail, "secret1")
	doctor := c.login(doctorEmail, "secret1")
	admin := c.login(*adminEmail, *adminPassword)

	c.call(http.MethodPost, "/api/doctor/applyfordoctor", doctor, map[string]interface{}{
		"specialization": "Cardiology", "experience": 5, "fees": 500,
	}, http.StatusCreated)
	c.call(http.MethodGet, "/api/doctor/getallapplications", admin, nil, http.StatusOK)
	c.call(http.MethodPut, "/api/doctor/approveddoctor", admin, map[string]string{"id": doctorID}, http.StatusOK)
	c.call(http.MethodGet, "/api/doctor/getalldoctors?search=cardio", "", nil, http.StatusOK)

	booked := c.call(http.MethodPost, "/api/appointment/bookappointment", patient, map[string]interface{}{
		"doctorId": doctorID, "date": time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "time": "10:00",
		"age": 30, "bloodGroup": "O+", "gender": "F",
	}, http.StatusCreated)
	appointmentID, _ := booked["_id"].(string)

	c.call(http.MethodGet, "/api/appointment/getallappointments", doctor, nil, http.StatusOK)
	c.call(http.MethodPut, "/api/appointment/completed", doctor, map[string]string{
		"appointid": appointmentID, "doctorId": doctorID, "doctorname": "Doc Smoke",
	}, http.StatusOK)
	c.call(http.MethodGet, "/api/notification/getallnotifs", patient, nil, http.StatusOK)
	c.call(http.MethodGet, "/api/notification/getallnotifs", doctor, nil, http.StatusOK)

	fmt.Println("Smoke test passed")
}
